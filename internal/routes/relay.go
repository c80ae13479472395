package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/gregriff/stegochat/internal/schemas"
	"golang.org/x/net/websocket"
)

// RelayWS serves one client connection. Events from the client are handled one at a time in
// the order they arrive; a slow extraction therefore delays only this client's next event.
// When the client goes away its registry entry is removed and anything still queued for it
// is dropped.
func (h *RouteHandler) RelayWS(ws *websocket.Conn) {
	if h.opts.MaxPayloadBytes > 0 {
		ws.MaxPayloadBytes = h.opts.MaxPayloadBytes
	}
	c := newConn(ws, h.opts.OutboundBuffer, h.opts.WriteTimeout)
	h.sessions.Update(c)

	ctx, cancel := context.WithCancel(ws.Request().Context())
	var writeWg sync.WaitGroup
	writeWg.Go(c.writeLoop)

	defer func() {
		cancel()
		if nick, ok := h.registry.Remove(c.handle); ok {
			log.Printf("%s disconnected", nick)
		}
		h.sessions.Delete(c.handle)
		c.close()
		writeWg.Wait()
		if cErr := ws.Close(); cErr != nil && h.opts.Debug {
			log.Println("error closing ws during defer: ", cErr)
		}
	}()

	for {
		var env schemas.Envelope
		err := websocket.JSON.Receive(ws, &env)
		if err != nil {
			if isRecoverableReadErr(err) {
				c.notify(fmt.Sprintf("could not read message: %v", err))
				continue
			}
			if !errors.Is(err, io.EOF) {
				log.Printf("error reading from ws: %v", err)
			}
			return
		}

		event, err := schemas.Decode(env)
		if err != nil {
			c.notify(err.Error())
			continue
		}
		if h.opts.Debug {
			log.Printf("conn %s: %s", c.handle, env.Event)
		}
		h.dispatch(ctx, c, event)
	}
}

// dispatch runs the handler for one decoded event. Handler errors are reported to the
// originating connection only and never close it.
func (h *RouteHandler) dispatch(ctx context.Context, c *conn, event schemas.Event) {
	var err error
	switch e := event.(type) {
	case schemas.RegisterRequest:
		err = h.register(c, e)
	case schemas.PrivateMessage:
		err = h.routeText(c, e)
	case schemas.PrivateImage:
		err = h.routeImage(ctx, c, e)
	case schemas.ExtractRequest:
		h.extract(ctx, c, e)
	default:
		err = fmt.Errorf("%s cannot be sent to the relay", event.EventName())
	}
	if err != nil {
		c.notify(err.Error())
	}
}

// isRecoverableReadErr reports whether the frame was consumed and the stream is still usable.
func isRecoverableReadErr(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.Is(err, websocket.ErrFrameTooLarge) || errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
