package cipher

// XOR is a repeating-key XOR keystream. Output byte i is input byte i XOR password byte
// (i mod len(password)), so Encrypt and Decrypt are the same operation.
//
// XOR conceals a payload from casual inspection only. It falls to known-plaintext and
// frequency analysis; use AEAD when the hidden text must stay confidential.
type XOR struct{}

func (XOR) Encrypt(plaintext, password []byte) ([]byte, error) {
	return xorKeystream(plaintext, password)
}

func (XOR) Decrypt(ciphertext, password []byte) ([]byte, error) {
	return xorKeystream(ciphertext, password)
}

func xorKeystream(in, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrInvalidKey
	}
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ password[i%len(password)]
	}
	return out, nil
}
