// Package frame wraps an encrypted payload in a self-describing header so that
// extraction can tell "nothing hidden", "wrong password or corrupt" and "truncated" apart.
//
// Wire layout, all integers big-endian:
//
//	byte 0      presence flag (0 = no hidden data, 1 = present)
//	bytes 1..4  ciphertext length (uint32)
//	bytes 5..8  CRC-32 (IEEE) of the plaintext before encryption
//	bytes 9..   ciphertext
//
// A frame without hidden data is the single byte 0.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/gregriff/stegochat/internal/cipher"
)

const (
	FlagNone    byte = 0
	FlagPresent byte = 1

	// HeaderSize is the size of the flag, length and checksum fields.
	HeaderSize = 9
)

var (
	ErrNoHiddenData = errors.New("no hidden data")

	// ErrWrongPasswordOrCorrupt covers both a wrong password and a damaged frame. Without
	// extra data the two cannot be told apart, so they are reported as one outcome.
	ErrWrongPasswordOrCorrupt = errors.New("wrong password or corrupted data")

	ErrTruncated = errors.New("truncated frame")
)

// Frame encrypts plaintext with c and returns the framed bytes.
func Frame(plaintext, password []byte, c cipher.Cipher) ([]byte, error) {
	ciphertext, err := c.Encrypt(plaintext, password)
	if err != nil {
		return nil, fmt.Errorf("error encrypting payload: %w", err)
	}

	framed := make([]byte, HeaderSize+len(ciphertext))
	framed[0] = FlagPresent
	binary.BigEndian.PutUint32(framed[1:5], uint32(len(ciphertext)))
	binary.BigEndian.PutUint32(framed[5:9], crc32.ChecksumIEEE(plaintext))
	copy(framed[HeaderSize:], ciphertext)
	return framed, nil
}

// Empty returns the frame that marks a carrier as holding no hidden data.
func Empty() []byte {
	return []byte{FlagNone}
}

// DeclaredLength returns the ciphertext length stored in a frame header.
// header must hold at least HeaderSize bytes.
func DeclaredLength(header []byte) uint32 {
	return binary.BigEndian.Uint32(header[1:5])
}

// Unframe validates framed, decrypts its ciphertext with c and verifies the checksum.
func Unframe(framed, password []byte, c cipher.Cipher) ([]byte, error) {
	if len(framed) == 0 || framed[0] != FlagPresent {
		return nil, ErrNoHiddenData
	}
	if len(framed) < HeaderSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(framed))
	}

	length := DeclaredLength(framed)
	checksum := binary.BigEndian.Uint32(framed[5:9])
	body := framed[HeaderSize:]
	if uint64(length) > uint64(len(body)) {
		return nil, fmt.Errorf("%w: declared %d bytes, have %d", ErrTruncated, length, len(body))
	}

	plaintext, err := c.Decrypt(body[:length], password)
	if errors.Is(err, cipher.ErrAuthentication) {
		return nil, ErrWrongPasswordOrCorrupt
	}
	if err != nil {
		return nil, err
	}

	if crc32.ChecksumIEEE(plaintext) != checksum {
		return nil, ErrWrongPasswordOrCorrupt
	}
	return plaintext, nil
}
