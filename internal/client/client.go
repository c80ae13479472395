// package client is a minimal websocket client for the relay. It is used by the send and
// listen commands and by the end-to-end tests.
package client

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gregriff/stegochat/internal/schemas"
	"golang.org/x/net/websocket"
)

const origin = "app://stegochat" // no real origin b/c we're not a browser

var ErrTimeout = errors.New("timed out waiting for event")

// Client sends typed events to the relay and reads typed events back. It is not safe for
// concurrent use by multiple goroutines.
type Client struct {
	ws *websocket.Conn
}

// WsURL turns an http(s) base url into the relay's websocket endpoint.
func WsURL(baseUrl string) string {
	loc := strings.TrimSuffix(baseUrl, "/")
	if strings.HasPrefix(loc, "http") {
		loc = strings.Replace(loc, "http", "ws", 1)
	}
	if !strings.HasSuffix(loc, "/ws") {
		loc += "/ws"
	}
	return loc
}

// Dial connects to the relay at baseUrl (http://host:port or ws://host:port/ws).
func Dial(baseUrl string) (*Client, error) {
	cfg, err := websocket.NewConfig(WsURL(baseUrl), origin)
	if err != nil {
		return nil, err
	}
	ws, err := websocket.DialConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("error dialing relay: %w", err)
	}
	return &Client{ws: ws}, nil
}

func (c *Client) Close() error {
	return c.ws.Close()
}

// Send writes one event.
func (c *Client) Send(e schemas.Event) error {
	env, err := schemas.Encode(e)
	if err != nil {
		return err
	}
	if err := websocket.JSON.Send(c.ws, env); err != nil {
		return fmt.Errorf("error writing to websocket: %w", err)
	}
	return nil
}

func (c *Client) Register(nickname string) error {
	return c.Send(schemas.RegisterRequest{Nickname: nickname})
}

func (c *Client) SendText(from, to, message string) error {
	return c.Send(schemas.PrivateMessage{From: from, To: to, Message: message})
}

// SendImage sends img to a recipient. hidden and password may be empty to send the image as is.
func (c *Client) SendImage(from, to string, img []byte, hidden, password string) error {
	return c.Send(schemas.PrivateImage{From: from, To: to, Image: img, HiddenMessage: hidden, Password: password})
}

func (c *Client) Extract(img []byte, password string) error {
	return c.Send(schemas.ExtractRequest{Image: img, Password: password})
}

// Next blocks until the next event arrives or timeout passes. A zero timeout waits forever.
func (c *Client) Next(timeout time.Duration) (schemas.Event, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := c.ws.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	var env schemas.Envelope
	if err := websocket.JSON.Receive(c.ws, &env); err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return schemas.Decode(env)
}

// Await reads events until one of type T arrives, logging and skipping any others.
func Await[T schemas.Event](c *Client, timeout time.Duration) (T, error) {
	var zero T
	end := time.Now().Add(timeout)
	for {
		remaining := time.Until(end)
		if remaining <= 0 {
			return zero, ErrTimeout
		}
		e, err := c.Next(remaining)
		if err != nil {
			return zero, err
		}
		if v, ok := e.(T); ok {
			return v, nil
		}
		log.Printf("skipping %s while waiting", e.EventName())
	}
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
