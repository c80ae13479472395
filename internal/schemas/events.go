package schemas

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event names exchanged with clients.
const (
	EventRegister         = "register"
	EventPrivateMessage   = "private_message"
	EventPrivateImage     = "private_image"
	EventExtractMessage   = "extract_message"
	EventReceiveMessage   = "receive_message"
	EventReceiveImage     = "receive_image"
	EventMessageExtracted = "message_extracted"
	EventSystemMessage    = "system_message"
)

var ErrUnknownEvent = errors.New("unknown event")

// Envelope is the JSON frame sent over the websocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is implemented by every typed payload. Envelopes are decoded into one of these
// once at the connection boundary.
type Event interface {
	EventName() string
}

// RegisterRequest claims a nickname for the sending connection. On the wire its data may
// be either the bare nickname string or {"nickname": "..."}.
type RegisterRequest struct {
	Nickname string `json:"nickname"`
}

// PrivateMessage is a directed text message.
type PrivateMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// PrivateImage is a directed image, optionally carrying text to hide in it.
type PrivateImage struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Image         []byte `json:"image"`
	HiddenMessage string `json:"hiddenMessage,omitempty"`
	Password      string `json:"password,omitempty"`
}

// WantsHiding reports whether both the hidden text and the password were supplied.
func (p PrivateImage) WantsHiding() bool {
	return p.HiddenMessage != "" && p.Password != ""
}

// ExtractRequest asks the relay to recover the text hidden in an image.
type ExtractRequest struct {
	Image    []byte `json:"image"`
	Password string `json:"password"`
}

type ReceiveMessage struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// ReceiveImage never carries the password or the hidden text, only a hint that one exists.
type ReceiveImage struct {
	From             string `json:"from"`
	Image            []byte `json:"image"`
	HasHiddenMessage bool   `json:"hasHiddenMessage"`
}

type MessageExtracted struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SystemMessage is a relay notice. On the wire its data is the bare text string; the object
// form {"text": "..."} is accepted when decoding.
type SystemMessage struct {
	Text string `json:"text"`
}

func (m SystemMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Text)
}

func (RegisterRequest) EventName() string  { return EventRegister }
func (PrivateMessage) EventName() string   { return EventPrivateMessage }
func (PrivateImage) EventName() string     { return EventPrivateImage }
func (ExtractRequest) EventName() string   { return EventExtractMessage }
func (ReceiveMessage) EventName() string   { return EventReceiveMessage }
func (ReceiveImage) EventName() string     { return EventReceiveImage }
func (MessageExtracted) EventName() string { return EventMessageExtracted }
func (SystemMessage) EventName() string    { return EventSystemMessage }

// Encode wraps an event in an Envelope.
func Encode(e Event) (Envelope, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("error marshaling %s: %w", e.EventName(), err)
	}
	return Envelope{Event: e.EventName(), Data: data}, nil
}

// Decode turns an Envelope into its typed event.
func Decode(env Envelope) (Event, error) {
	var (
		e   Event
		err error
	)
	switch env.Event {
	case EventRegister:
		e, err = decodeRegister(env.Data)
	case EventPrivateMessage:
		e, err = decodeInto[PrivateMessage](env.Data)
	case EventPrivateImage:
		e, err = decodeInto[PrivateImage](env.Data)
	case EventExtractMessage:
		e, err = decodeInto[ExtractRequest](env.Data)
	case EventReceiveMessage:
		e, err = decodeInto[ReceiveMessage](env.Data)
	case EventReceiveImage:
		e, err = decodeInto[ReceiveImage](env.Data)
	case EventMessageExtracted:
		e, err = decodeInto[MessageExtracted](env.Data)
	case EventSystemMessage:
		e, err = decodeSystemMessage(env.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("malformed %s: %w", env.Event, err)
	}
	return e, nil
}

func decodeInto[T Event](data json.RawMessage) (Event, error) {
	var v T
	if len(data) == 0 {
		return nil, errors.New("missing data")
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeRegister(data json.RawMessage) (Event, error) {
	var nick string
	if err := json.Unmarshal(data, &nick); err == nil {
		return RegisterRequest{Nickname: nick}, nil
	}
	return decodeInto[RegisterRequest](data)
}

func decodeSystemMessage(data json.RawMessage) (Event, error) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return SystemMessage{Text: text}, nil
	}
	return decodeInto[SystemMessage](data)
}
