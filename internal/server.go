package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gregriff/stegochat/configs"
	"github.com/gregriff/stegochat/internal/api"
	"github.com/gregriff/stegochat/internal/cipher"
	"github.com/gregriff/stegochat/internal/conceal"
	"github.com/gregriff/stegochat/internal/dal"
	"github.com/gregriff/stegochat/internal/db"
	"github.com/gregriff/stegochat/internal/middleware"
	"github.com/gregriff/stegochat/internal/presence"
	"github.com/gregriff/stegochat/internal/routes"
	"github.com/gregriff/stegochat/internal/stego"
	"golang.org/x/net/websocket"
)

// room for the JSON envelope and other fields around a base64 image
const envelopeOverhead = 64 << 10

func CreateAndListen(settings configs.Settings) {
	var audit *dal.AuditLog
	if settings.Audit.Enabled {
		path := settings.Audit.Path
		if path == "" {
			path = db.DefaultPath()
		}
		conn := db.GetDB(path)
		defer conn.Close()
		audit = dal.NewAuditLog(conn)
		log.Printf("recording relay events to %s", path)
	}

	handler, err := NewHandler(settings, audit)
	if err != nil {
		log.Fatalf("error building relay: %v", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		ReadHeaderTimeout: 500 * time.Millisecond,
		Handler:           handler,
	}

	// graceful shutdown channel
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// run server
	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
		log.Println("Stopped serving new connections.")
	}()

	// recieve stop signals
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("Graceful shutdown complete.")
}

// NewHandler assembles the relay and API from settings. audit may be nil.
func NewHandler(settings configs.Settings, audit *dal.AuditLog) (http.Handler, error) {
	concealer, err := NewConcealer(settings)
	if err != nil {
		return nil, err
	}
	registry := presence.NewRegistry(presence.ParsePolicy(settings.Relay.DuplicatePolicy))

	opts := routes.Options{
		Acknowledge:        settings.Relay.Acknowledge,
		MaxImageBytes:      settings.Relay.MaxImageBytes,
		OutboundBuffer:     settings.Relay.OutboundBuffer,
		WriteTimeout:       settings.Relay.WriteTimeout,
		MaxConcurrentCodec: settings.Relay.MaxConcurrentCodec,
		Debug:              settings.Debug,
	}
	if settings.Relay.MaxImageBytes > 0 {
		opts.MaxPayloadBytes = settings.Relay.MaxImageBytes/3*4 + envelopeOverhead
	}

	// a nil *dal.AuditLog must not reach the interfaces as a non-nil value
	var auditor routes.Auditor
	var stats api.StatsSource
	if audit != nil {
		auditor, stats = audit, audit
	}
	h := routes.NewRouteHandler(registry, concealer, auditor, opts)

	mux := http.NewServeMux()
	createRoutes(mux, h)
	if settings.APIEnabled {
		apiServer := api.NewServer(registry, concealer, h.CodecLimiter(), stats, api.Config{
			MaxUploadBytes: int64(settings.Relay.MaxImageBytes),
			Debug:          settings.Debug,
		})
		mux.Handle("/api/", apiServer.Handler())
	}

	var handler http.Handler = mux
	if settings.Debug {
		handler = middleware.DebugLogging(mux)
	}
	return handler, nil
}

// NewConcealer builds the conceal/reveal pipeline with the configured cipher and limits.
func NewConcealer(settings configs.Settings) (*conceal.Concealer, error) {
	c, err := cipher.ByName(settings.Cipher.Name, settings.Cipher.Iterations)
	if err != nil {
		return nil, err
	}
	return conceal.New(c, stego.Limits{
		MaxEncodedBytes: settings.Relay.MaxImageBytes,
		MaxPixels:       settings.Relay.MaxPixels,
	}, settings.Relay.MaxFrameBytes), nil
}

// createRoutes creates the routing rules for the webserver
func createRoutes(mux *http.ServeMux, h *routes.RouteHandler) {
	relayHandler := websocket.Server{
		Handshake: websocketHandshake,
		Handler:   h.RelayWS,
	}
	mux.Handle("GET /ws", relayHandler)
}

// clients are not browsers, so there is no meaningful origin to check
func websocketHandshake(_ *websocket.Config, _ *http.Request) error { return nil }

// OpenAudit opens the audit database at path without the process-wide handle, for read-only
// commands.
func OpenAudit(path string) (*sql.DB, *dal.AuditLog, error) {
	if path == "" {
		path = db.DefaultPath()
	}
	conn, err := db.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return conn, dal.NewAuditLog(conn), nil
}
