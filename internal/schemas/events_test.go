package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, raw string) (Event, error) {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	return Decode(env)
}

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "register bare string",
			raw:  `{"event":"register","data":"alice"}`,
			want: RegisterRequest{Nickname: "alice"},
		},
		{
			name: "register object",
			raw:  `{"event":"register","data":{"nickname":"alice"}}`,
			want: RegisterRequest{Nickname: "alice"},
		},
		{
			name: "private message",
			raw:  `{"event":"private_message","data":{"from":"a","to":"b","message":"hi"}}`,
			want: PrivateMessage{From: "a", To: "b", Message: "hi"},
		},
		{
			name: "private image with hidden text",
			raw:  `{"event":"private_image","data":{"from":"a","to":"b","image":"AQID","hiddenMessage":"s","password":"k"}}`,
			want: PrivateImage{From: "a", To: "b", Image: []byte{1, 2, 3}, HiddenMessage: "s", Password: "k"},
		},
		{
			name: "extract",
			raw:  `{"event":"extract_message","data":{"image":"AQID","password":"k"}}`,
			want: ExtractRequest{Image: []byte{1, 2, 3}, Password: "k"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeJSON(t, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := decodeJSON(t, `{"event":"shout","data":{}}`)
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = decodeJSON(t, `{"event":"private_message"}`)
	assert.ErrorContains(t, err, "missing data")

	_, err = decodeJSON(t, `{"event":"private_image","data":{"image":"not base64!"}}`)
	assert.ErrorContains(t, err, "malformed private_image")
}

func TestEncodeDecodeOutbound(t *testing.T) {
	events := []Event{
		ReceiveMessage{From: "a", Message: "hi"},
		ReceiveImage{From: "a", Image: []byte{9, 8}, HasHiddenMessage: true},
		MessageExtracted{Success: false, Error: "no-hidden-data"},
		SystemMessage{Text: "user b is not available"},
	}
	for _, e := range events {
		env, err := Encode(e)
		require.NoError(t, err)
		assert.Equal(t, e.EventName(), env.Event)

		got, err := Decode(env)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
}

func TestReceiveImageOmitsSecrets(t *testing.T) {
	env, err := Encode(ReceiveImage{From: "a", Image: []byte{1}, HasHiddenMessage: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"a","image":"AQ==","hasHiddenMessage":true}`, string(env.Data))
}

func TestSystemMessageIsBareString(t *testing.T) {
	env, err := Encode(SystemMessage{Text: "user bob is not available"})
	require.NoError(t, err)
	assert.JSONEq(t, `"user bob is not available"`, string(env.Data))

	var text string
	require.NoError(t, json.Unmarshal(env.Data, &text))
	assert.Equal(t, "user bob is not available", text)

	got, err := decodeJSON(t, `{"event":"system_message","data":{"text":"hi"}}`)
	require.NoError(t, err)
	assert.Equal(t, SystemMessage{Text: "hi"}, got)
}

func TestWantsHiding(t *testing.T) {
	assert.True(t, PrivateImage{HiddenMessage: "x", Password: "k"}.WantsHiding())
	assert.False(t, PrivateImage{HiddenMessage: "x"}.WantsHiding())
	assert.False(t, PrivateImage{Password: "k"}.WantsHiding())
}
