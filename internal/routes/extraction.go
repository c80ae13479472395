package routes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/gregriff/stegochat/internal/conceal"
	"github.com/gregriff/stegochat/internal/schemas"
	"github.com/gregriff/stegochat/internal/stego"
)

// ExtractionState is the state of a connection's extraction exchange.
type ExtractionState int

const (
	Idle ExtractionState = iota
	Requested
	ResolvedSuccess
	ResolvedNoData
	ResolvedBadPassword
	ResolvedTruncated
	ResolvedFailed
)

var stateNames = [...]string{"idle", "requested", "resolved-success", "resolved-no-data", "resolved-bad-password", "resolved-truncated", "resolved-failed"}

func (s ExtractionState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrExtractionPending = errors.New("an extraction is already in progress")

// Extraction tracks Idle -> Requested -> Resolved* -> Idle for one connection.
// No transition retries anything; a new password means a new request.
type Extraction struct {
	mu       sync.Mutex
	state    ExtractionState
	resolved uint64
}

// Begin moves Idle to Requested.
func (e *Extraction) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Idle {
		return ErrExtractionPending
	}
	e.state = Requested
	return nil
}

// Resolve records the outcome of the pending request.
func (e *Extraction) Resolve(o conceal.Outcome) ExtractionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch o {
	case conceal.Success:
		e.state = ResolvedSuccess
	case conceal.NoData:
		e.state = ResolvedNoData
	case conceal.BadPassword:
		e.state = ResolvedBadPassword
	case conceal.Truncated:
		e.state = ResolvedTruncated
	default:
		e.state = ResolvedFailed
	}
	e.resolved++
	return e.state
}

// Finish returns to Idle once the response has been handed off.
func (e *Extraction) Finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Idle
}

func (e *Extraction) State() ExtractionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Resolved returns how many requests this connection has had answered.
func (e *Extraction) Resolved() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolved
}

// extract answers an extract_message request on the connection that sent it. Every request
// gets exactly one message_extracted response unless the connection is already gone.
func (h *RouteHandler) extract(ctx context.Context, c *conn, req schemas.ExtractRequest) {
	if err := c.extraction.Begin(); err != nil {
		c.send(schemas.MessageExtracted{Success: false, Error: err.Error()})
		return
	}
	defer c.extraction.Finish()

	msg, err := h.reveal(ctx, req)
	if errors.Is(err, context.Canceled) {
		// nobody left to answer
		return
	}
	state := c.extraction.Resolve(conceal.Classify(err))
	h.audit.Record(kindExtract, state.String())
	if h.opts.Debug {
		log.Printf("conn %s: extraction %s", c.handle, state)
	}

	if err != nil {
		c.send(schemas.MessageExtracted{Success: false, Error: conceal.Reason(err)})
		return
	}
	c.send(schemas.MessageExtracted{Success: true, Message: string(msg)})
}

func (h *RouteHandler) reveal(ctx context.Context, req schemas.ExtractRequest) ([]byte, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("%w: empty image", stego.ErrInvalidImage)
	}
	if h.opts.MaxImageBytes > 0 && len(req.Image) > h.opts.MaxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", stego.ErrImageTooLarge, len(req.Image), h.opts.MaxImageBytes)
	}
	if err := h.codecSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer h.codecSem.Release(1)
	return h.concealer.Reveal(req.Image, []byte(req.Password))
}
