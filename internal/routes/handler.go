// package routes contains the websocket relay: the per-connection event loop, directed
// routing of text and images, and the extraction request/response exchange.
package routes

import (
	"time"

	"github.com/gregriff/stegochat/internal/conceal"
	"github.com/gregriff/stegochat/internal/presence"
	"golang.org/x/sync/semaphore"
)

// Options tune the relay. Zero values disable the corresponding limit.
type Options struct {
	// send "registered as"/"message sent to" notices back to senders
	Acknowledge bool

	// largest image accepted in private_image or extract_message
	MaxImageBytes int

	// largest websocket frame read from a client
	MaxPayloadBytes int

	// events queued per connection; a client that falls this far behind is dropped
	OutboundBuffer int

	// longest a single websocket write may take before the client is dropped
	WriteTimeout time.Duration

	// codec jobs allowed to run at once across all connections
	MaxConcurrentCodec int64

	Debug bool
}

// Auditor records relay outcomes. It never sees message content.
type Auditor interface {
	Record(kind, outcome string)
}

type nopAuditor struct{}

func (nopAuditor) Record(string, string) {}

// RouteHandler provides the dependencies for the relay, and is the receiver of the event handling functions
type RouteHandler struct {
	registry  *presence.Registry
	sessions  *sessionMap
	concealer *conceal.Concealer
	codecSem  *semaphore.Weighted
	audit     Auditor
	opts      Options
}

// NewRouteHandler creates the receiver for all event handling functions. audit may be nil.
func NewRouteHandler(registry *presence.Registry, concealer *conceal.Concealer, audit Auditor, opts Options) *RouteHandler {
	if audit == nil {
		audit = nopAuditor{}
	}
	if opts.MaxConcurrentCodec <= 0 {
		opts.MaxConcurrentCodec = 4
	}
	if opts.OutboundBuffer <= 0 {
		opts.OutboundBuffer = 16
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &RouteHandler{
		registry:  registry,
		sessions:  newSessionMap(),
		concealer: concealer,
		codecSem:  semaphore.NewWeighted(opts.MaxConcurrentCodec),
		audit:     audit,
		opts:      opts,
	}
}

// Registry exposes presence state to read-only consumers such as the HTTP API.
func (h *RouteHandler) Registry() *presence.Registry {
	return h.registry
}

// CodecLimiter is the semaphore bounding concurrent codec work, for sharing with other front ends.
func (h *RouteHandler) CodecLimiter() *semaphore.Weighted {
	return h.codecSem
}
