package frame

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"testing"

	"github.com/gregriff/stegochat/internal/cipher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLayout(t *testing.T) {
	framed, err := Frame([]byte("hi"), []byte("k"), cipher.XOR{})
	require.NoError(t, err)
	require.Len(t, framed, 11)

	assert.Equal(t, FlagPresent, framed[0])
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(framed[1:5]))
	assert.Equal(t, crc32.ChecksumIEEE([]byte("hi")), binary.BigEndian.Uint32(framed[5:9]))
	assert.Equal(t, []byte{'h' ^ 'k', 'i' ^ 'k'}, framed[9:])
}

func TestFrameRoundTrip(t *testing.T) {
	ciphers := map[string]cipher.Cipher{
		"xor":  cipher.XOR{},
		"aead": cipher.NewAEAD(1000),
	}
	payloads := [][]byte{{}, []byte("hi"), []byte("a somewhat longer hidden message"), {0, 1, 2, 255}}

	for name, c := range ciphers {
		for i, p := range payloads {
			t.Run(fmt.Sprintf("%s/%d", name, i), func(t *testing.T) {
				framed, err := Frame(p, []byte("password"), c)
				require.NoError(t, err)
				assert.Equal(t, uint32(len(framed)-HeaderSize), DeclaredLength(framed))

				got, err := Unframe(framed, []byte("password"), c)
				require.NoError(t, err)
				assert.Equal(t, string(p), string(got))
			})
		}
	}
}

func TestUnframeWrongPassword(t *testing.T) {
	ciphers := map[string]cipher.Cipher{
		"xor":  cipher.XOR{},
		"aead": cipher.NewAEAD(1000),
	}
	for name, c := range ciphers {
		t.Run(name, func(t *testing.T) {
			framed, err := Frame([]byte("hi"), []byte("k"), c)
			require.NoError(t, err)

			_, err = Unframe(framed, []byte("x"), c)
			assert.ErrorIs(t, err, ErrWrongPasswordOrCorrupt)
		})
	}
}

func TestUnframeCorrupt(t *testing.T) {
	framed, err := Frame([]byte("hello there"), []byte("k"), cipher.XOR{})
	require.NoError(t, err)

	framed[HeaderSize+3] ^= 0x40
	_, err = Unframe(framed, []byte("k"), cipher.XOR{})
	assert.ErrorIs(t, err, ErrWrongPasswordOrCorrupt)
}

func TestUnframeNoHiddenData(t *testing.T) {
	for _, key := range [][]byte{[]byte("k"), []byte("anything"), nil} {
		_, err := Unframe(Empty(), key, cipher.XOR{})
		assert.ErrorIs(t, err, ErrNoHiddenData)
	}

	_, err := Unframe(nil, []byte("k"), cipher.XOR{})
	assert.ErrorIs(t, err, ErrNoHiddenData)

	// any flag other than 1 reads as an untouched carrier
	_, err = Unframe([]byte{0x7f, 0, 0, 0, 1, 0, 0, 0, 0, 'a'}, []byte("k"), cipher.XOR{})
	assert.ErrorIs(t, err, ErrNoHiddenData)
}

func TestUnframeTruncated(t *testing.T) {
	framed, err := Frame([]byte("hello"), []byte("k"), cipher.XOR{})
	require.NoError(t, err)

	_, err = Unframe(framed[:5], []byte("k"), cipher.XOR{})
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Unframe(framed[:len(framed)-1], []byte("k"), cipher.XOR{})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestUnframeEmptyPassword(t *testing.T) {
	framed, err := Frame([]byte("hello"), []byte("k"), cipher.XOR{})
	require.NoError(t, err)

	_, err = Unframe(framed, nil, cipher.XOR{})
	assert.ErrorIs(t, err, cipher.ErrInvalidKey)

	_, err = Frame([]byte("hello"), nil, cipher.XOR{})
	assert.ErrorIs(t, err, cipher.ErrInvalidKey)
}
