package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"io"
)

// NewDecryptReader wraps r in an AES-128/CFB8 decrypting stream keyed by
// secret, with the IV set to secret itself (spec.md §4.1: "an IV equal to
// the shared secret").
func NewDecryptReader(r io.Reader, secret []byte) (io.Reader, error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}
	return &cipher.StreamReader{S: NewCFB8Decrypter(block, secret), R: r}, nil
}

// NewEncryptWriter wraps w in the corresponding encrypting stream.
func NewEncryptWriter(w io.Writer, secret []byte) (io.Writer, error) {
	block, err := aes.NewCipher(secret)
	if err != nil {
		return nil, err
	}
	return &cipher.StreamWriter{S: NewCFB8Encrypter(block, secret), W: w}, nil
}
