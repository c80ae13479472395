package routes

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gregriff/stegochat/internal/presence"
	"github.com/gregriff/stegochat/internal/schemas"
	"golang.org/x/net/websocket"
)

// conn is one client connection. Events for it are queued on out and written by a single
// writer goroutine, so deliveries from many senders never interleave on the socket.
// Enqueueing never blocks: a client whose queue is full is dropped.
type conn struct {
	handle presence.Handle
	ws     *websocket.Conn

	out          chan schemas.Envelope
	done         chan struct{}
	closeOnce    sync.Once
	dropped      atomic.Bool
	writeTimeout time.Duration

	extraction Extraction
}

func newConn(ws *websocket.Conn, buffer int, writeTimeout time.Duration) *conn {
	return &conn{
		handle:       uuid.New(),
		ws:           ws,
		out:          make(chan schemas.Envelope, buffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// send queues an event for the client. It returns false once the connection is closed, or
// when the queue is full, in which case the connection is dropped.
func (c *conn) send(e schemas.Event) bool {
	env, err := schemas.Encode(e)
	if err != nil {
		log.Printf("error encoding %s: %v", e.EventName(), err)
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- env:
		return true
	default:
		log.Printf("conn %s: outbound queue full, dropping connection", c.handle)
		c.drop()
		return false
	}
}

func (c *conn) notify(text string) {
	c.send(schemas.SystemMessage{Text: text})
}

func (c *conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// drop closes the connection on behalf of another goroutine. The socket itself is closed by
// the writer, which may be blocked in a write until its deadline passes.
func (c *conn) drop() {
	c.dropped.Store(true)
	c.close()
}

// writeLoop drains out onto the websocket until the connection closes or a write fails.
func (c *conn) writeLoop() {
	defer func() {
		if c.dropped.Load() {
			// unblocks the read loop so the relay cleans up
			if cErr := c.ws.Close(); cErr != nil {
				log.Printf("error closing dropped ws: %v", cErr)
			}
		}
	}()
	for {
		select {
		case <-c.done:
			return
		case env := <-c.out:
			if c.writeTimeout > 0 {
				if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
					log.Printf("error setting write deadline: %v", err)
				}
			}
			if err := websocket.JSON.Send(c.ws, env); err != nil {
				log.Printf("error writing %s to ws: %v", env.Event, err)
				c.drop()
				return
			}
		}
	}
}

// sessionMap stores the live connections by handle. Entries are added when a websocket
// opens and deleted when it closes.
type sessionMap struct {
	mu    sync.Mutex
	conns map[presence.Handle]*conn
}

func newSessionMap() *sessionMap {
	return &sessionMap{conns: make(map[presence.Handle]*conn, 10)}
}

func (m *sessionMap) Update(c *conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[c.handle] = c
}

func (m *sessionMap) Get(h presence.Handle) (*conn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[h]
	return c, ok
}

func (m *sessionMap) Delete(h presence.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conns, h)
}
