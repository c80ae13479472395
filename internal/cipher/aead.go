package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize           = 16
	NonceSize          = 12
	KeySize            = 32
	TagSize            = 16
	DefaultPBKDF2Iters = 100_000
	aeadOverhead       = SaltSize + NonceSize + TagSize
)

// AEAD derives an AES-256 key from the password with PBKDF2-SHA256 and a random salt,
// then seals the payload with AES-GCM. Output layout: [salt][nonce][ciphertext|tag].
type AEAD struct {
	iterations int
	rand       io.Reader
}

// NewAEAD creates an AEAD cipher. Non-positive iterations fall back to DefaultPBKDF2Iters.
func NewAEAD(iterations int) *AEAD {
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iters
	}
	return &AEAD{iterations: iterations, rand: rand.Reader}
}

func (a *AEAD) Encrypt(plaintext, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrInvalidKey
	}

	out := make([]byte, SaltSize+NonceSize, SaltSize+NonceSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(a.rand, out); err != nil {
		return nil, fmt.Errorf("salt/nonce generation failed: %w", err)
	}
	salt, nonce := out[:SaltSize], out[SaltSize:]

	gcm, err := a.gcm(password, salt)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

func (a *AEAD) Decrypt(ciphertext, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrInvalidKey
	}
	if len(ciphertext) < aeadOverhead {
		return nil, fmt.Errorf("%w: ciphertext shorter than %d bytes", ErrAuthentication, aeadOverhead)
	}

	salt := ciphertext[:SaltSize]
	nonce := ciphertext[SaltSize : SaltSize+NonceSize]
	gcm, err := a.gcm(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext[SaltSize+NonceSize:], nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func (a *AEAD) gcm(password, salt []byte) (gocipher.AEAD, error) {
	key := pbkdf2.Key(password, salt, a.iterations, KeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher creation failed: %w", err)
	}
	gcm, err := gocipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM creation failed: %w", err)
	}
	return gcm, nil
}
