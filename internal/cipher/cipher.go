// Package cipher contains the password-derived ciphers used to encrypt a hidden payload
// before it is framed and embedded into a carrier image.
package cipher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when an empty password is supplied.
	ErrInvalidKey = errors.New("invalid key: password must not be empty")

	// ErrAuthentication is returned by authenticated ciphers when the ciphertext does not
	// verify under the supplied password.
	ErrAuthentication = errors.New("authentication failed")
)

// Cipher encrypts and decrypts a payload with a password. Implementations are stateless
// and safe for concurrent use.
type Cipher interface {
	Encrypt(plaintext, password []byte) ([]byte, error)
	Decrypt(ciphertext, password []byte) ([]byte, error)
}

const (
	NameXOR  = "xor"
	NameAEAD = "aead"
)

// ByName returns the cipher configured under name. iterations is only used by the AEAD cipher.
func ByName(name string, iterations int) (Cipher, error) {
	switch name {
	case "", NameXOR:
		return XOR{}, nil
	case NameAEAD:
		return NewAEAD(iterations), nil
	default:
		return nil, fmt.Errorf("unknown cipher %q (expected %q or %q)", name, NameXOR, NameAEAD)
	}
}
