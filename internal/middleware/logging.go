// package middleware holds net/http middleware for the relay's mux.
package middleware

import (
	"log"
	"net/http"
	"time"
)

// DebugLogging logs each request and how long it was served for. The ResponseWriter is passed
// through untouched so the websocket handshake can still hijack it.
func DebugLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("%s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("%s %s done in %s", r.Method, r.URL.Path, time.Since(start))
	})
}
