// Package conceal ties the cipher, framer and LSB codec together: it hides a text payload
// in an encoded carrier image and recovers it again.
package conceal

import (
	"errors"
	"fmt"

	"github.com/gregriff/stegochat/internal/cipher"
	"github.com/gregriff/stegochat/internal/frame"
	"github.com/gregriff/stegochat/internal/stego"
)

// Concealer is stateless apart from its configuration and is safe for concurrent use.
type Concealer struct {
	cipher        cipher.Cipher
	limits        stego.Limits
	maxFrameBytes int
}

// New creates a Concealer. maxFrameBytes caps the frame size read back during extraction;
// zero means only the carrier size limits it.
func New(c cipher.Cipher, limits stego.Limits, maxFrameBytes int) *Concealer {
	return &Concealer{cipher: c, limits: limits, maxFrameBytes: maxFrameBytes}
}

// Conceal embeds message, encrypted with password, into the carrier image and returns the
// result as a PNG.
func (c *Concealer) Conceal(img, message, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, cipher.ErrInvalidKey
	}

	carrier, err := stego.DecodeCarrier(img, c.limits)
	if err != nil {
		return nil, err
	}

	framed, err := frame.Frame(message, password, c.cipher)
	if err != nil {
		return nil, err
	}
	if c.maxFrameBytes > 0 && len(framed) > c.maxFrameBytes {
		return nil, &stego.CapacityError{
			NeedBits:      len(framed) * 8,
			HaveBits:      c.maxFrameBytes * 8,
			MaxFrameBytes: c.maxFrameBytes,
		}
	}

	embedded, err := stego.Embed(stego.Samples(carrier), framed)
	if err != nil {
		return nil, err
	}
	out, err := stego.WithSamples(carrier, embedded)
	if err != nil {
		return nil, fmt.Errorf("error rebuilding carrier: %w", err)
	}
	return stego.EncodePNG(out)
}

// Reveal extracts and decrypts the message hidden in img.
func (c *Concealer) Reveal(img, password []byte) ([]byte, error) {
	carrier, err := stego.DecodeCarrier(img, c.limits)
	if err != nil {
		return nil, err
	}

	framed, err := stego.Extract(stego.Samples(carrier), c.maxFrameBytes)
	if err != nil {
		return nil, err
	}
	return frame.Unframe(framed, password, c.cipher)
}

// Outcome classifies the result of a Reveal.
type Outcome int

const (
	Success Outcome = iota
	NoData
	BadPassword
	Truncated
	Failed
)

var outcomeNames = map[Outcome]string{
	Success:     "success",
	NoData:      "no-hidden-data",
	BadPassword: "wrong-password-or-corrupt",
	Truncated:   "truncated",
	Failed:      "failed",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Classify maps an error from Reveal onto an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, frame.ErrNoHiddenData):
		return NoData
	case errors.Is(err, frame.ErrWrongPasswordOrCorrupt):
		return BadPassword
	case errors.Is(err, frame.ErrTruncated):
		return Truncated
	default:
		return Failed
	}
}

// Reason returns the machine-readable reason reported to clients for err.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, cipher.ErrInvalidKey):
		return "invalid-key"
	case errors.Is(err, stego.ErrInvalidImage):
		return "invalid-image"
	case errors.Is(err, stego.ErrImageTooLarge):
		return "image-too-large"
	}
	var capErr *stego.CapacityError
	if errors.As(err, &capErr) {
		return "capacity"
	}
	return Classify(err).String()
}
