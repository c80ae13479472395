package routes

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gregriff/stegochat/internal/presence"
	"github.com/gregriff/stegochat/internal/schemas"
	"github.com/gregriff/stegochat/internal/stego"
	"github.com/gregriff/stegochat/internal/validation"
)

var (
	ErrRecipientOffline = errors.New("recipient offline")
	ErrNotRegistered    = errors.New("register a nickname before sending")
	ErrSenderMismatch   = errors.New("sender does not match registered nickname")
	ErrEmptyImage       = errors.New("empty image")
)

// audit kinds
const (
	kindRegister = "register"
	kindText     = "text"
	kindImage    = "image"
	kindExtract  = "extract"
)

func (h *RouteHandler) register(c *conn, req schemas.RegisterRequest) error {
	if err := validation.ValidateNickname(req.Nickname); err != nil {
		h.audit.Record(kindRegister, "invalid")
		return fmt.Errorf("invalid nickname %q (%w)", req.Nickname, err)
	}

	prev, replaced, err := h.registry.Register(req.Nickname, c.handle)
	if errors.Is(err, presence.ErrDuplicateRegistration) {
		h.audit.Record(kindRegister, "duplicate")
		return fmt.Errorf("nickname %s is already in use: %w", req.Nickname, err)
	}
	if err != nil {
		return err
	}

	if replaced {
		h.audit.Record(kindRegister, "replaced")
		log.Printf("%s re-registered from another connection", req.Nickname)
		if old, ok := h.sessions.Get(prev); ok {
			old.notify(fmt.Sprintf("nickname %s was registered by another connection; you will no longer receive messages", req.Nickname))
		}
	} else {
		h.audit.Record(kindRegister, "ok")
	}

	log.Printf("registered %s", req.Nickname)
	if h.opts.Acknowledge {
		c.notify(fmt.Sprintf("registered as %s", req.Nickname))
	}
	return nil
}

// sender resolves the nickname a connection speaks as. claimed, when set, must match it.
func (h *RouteHandler) sender(c *conn, claimed string) (string, error) {
	nick, ok := h.registry.NicknameOf(c.handle)
	if !ok {
		return "", ErrNotRegistered
	}
	if claimed != "" && claimed != nick {
		return "", fmt.Errorf("%w: %q", ErrSenderMismatch, claimed)
	}
	return nick, nil
}

// recipient returns the live connection registered for nickname.
func (h *RouteHandler) recipient(nickname string) (*conn, error) {
	handle, ok := h.registry.Lookup(nickname)
	if !ok {
		return nil, fmt.Errorf("user %s is not available: %w", nickname, ErrRecipientOffline)
	}
	target, ok := h.sessions.Get(handle)
	if !ok {
		return nil, fmt.Errorf("user %s is not available: %w", nickname, ErrRecipientOffline)
	}
	return target, nil
}

// routeText delivers a text message to its recipient only. Failures are returned for the
// caller to report to the sender; the recipient never learns of a failed attempt.
func (h *RouteHandler) routeText(c *conn, msg schemas.PrivateMessage) error {
	from, err := h.sender(c, msg.From)
	if err != nil {
		return err
	}
	if err := validation.ValidateMessage(msg.Message, h.opts.MaxPayloadBytes); err != nil {
		h.audit.Record(kindText, "invalid")
		return err
	}

	target, err := h.recipient(msg.To)
	if err != nil {
		h.audit.Record(kindText, "offline")
		return err
	}
	if !target.send(schemas.ReceiveMessage{From: from, Message: msg.Message}) {
		h.audit.Record(kindText, "offline")
		return fmt.Errorf("user %s is not available: %w", msg.To, ErrRecipientOffline)
	}

	h.audit.Record(kindText, "delivered")
	if h.opts.Acknowledge {
		c.notify(fmt.Sprintf("message sent to %s", msg.To))
	}
	return nil
}

// routeImage delivers an image, hiding the requested text in it first when both the text
// and a password are given. The codec only runs once the recipient is known to be online.
func (h *RouteHandler) routeImage(ctx context.Context, c *conn, msg schemas.PrivateImage) error {
	from, err := h.sender(c, msg.From)
	if err != nil {
		return err
	}
	if _, err := h.recipient(msg.To); err != nil {
		h.audit.Record(kindImage, "offline")
		return err
	}
	if len(msg.Image) == 0 {
		h.audit.Record(kindImage, "invalid")
		return ErrEmptyImage
	}
	if h.opts.MaxImageBytes > 0 && len(msg.Image) > h.opts.MaxImageBytes {
		h.audit.Record(kindImage, "invalid")
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", stego.ErrImageTooLarge, len(msg.Image), h.opts.MaxImageBytes)
	}

	img, hidden := msg.Image, false
	if msg.WantsHiding() {
		if err := h.codecSem.Acquire(ctx, 1); err != nil {
			return err
		}
		img, err = h.concealer.Conceal(msg.Image, []byte(msg.HiddenMessage), []byte(msg.Password))
		h.codecSem.Release(1)
		if err != nil {
			h.audit.Record(kindImage, "conceal-failed")
			return fmt.Errorf("error hiding message: %w", err)
		}
		hidden = true
	}

	// the recipient may have left while the codec ran
	target, err := h.recipient(msg.To)
	if err == nil && !target.send(schemas.ReceiveImage{From: from, Image: img, HasHiddenMessage: hidden}) {
		err = fmt.Errorf("user %s is not available: %w", msg.To, ErrRecipientOffline)
	}
	if err != nil {
		h.audit.Record(kindImage, "offline")
		return err
	}

	if hidden {
		h.audit.Record(kindImage, "delivered-hidden")
	} else {
		h.audit.Record(kindImage, "delivered")
	}
	if h.opts.Acknowledge {
		c.notify(fmt.Sprintf("image sent to %s", msg.To))
	}
	return nil
}
