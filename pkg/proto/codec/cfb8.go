package codec

import "crypto/cipher"

// Minecraft's packet-stream encryption is AES-128 in CFB8 mode (8-bit
// feedback), a variant the Go standard library's crypto/cipher does not
// implement directly (it only offers full block-size CFB). spec.md §4.1
// requires byte-granular feedback so the client's existing networking
// stack (built around classic Java CFB8 streams) can use it unmodified;
// we hand-roll the shift-register construction here, the same way every
// Minecraft server/proxy implementation in Go or Java does.

type cfb8Encrypt struct {
	b   cipher.Block
	iv  []byte // shift register, len == block size
	tmp []byte
}

// NewCFB8Encrypter returns a stream cipher that encrypts using AES/CFB8
// with the given block cipher and IV (the shared secret itself, per
// spec.md §4.1).
func NewCFB8Encrypter(b cipher.Block, iv []byte) cipher.Stream {
	return &cfb8Encrypt{b: b, iv: append([]byte(nil), iv...), tmp: make([]byte, b.BlockSize())}
}

func (c *cfb8Encrypt) XORKeyStream(dst, src []byte) {
	bs := c.b.BlockSize()
	for i := range src {
		c.b.Encrypt(c.tmp, c.iv)
		out := src[i] ^ c.tmp[0]
		dst[i] = out
		copy(c.iv, c.iv[1:bs])
		c.iv[bs-1] = out
	}
}

type cfb8Decrypt struct {
	b   cipher.Block
	iv  []byte
	tmp []byte
}

// NewCFB8Decrypter returns the corresponding decrypting stream.
func NewCFB8Decrypter(b cipher.Block, iv []byte) cipher.Stream {
	return &cfb8Decrypt{b: b, iv: append([]byte(nil), iv...), tmp: make([]byte, b.BlockSize())}
}

func (c *cfb8Decrypt) XORKeyStream(dst, src []byte) {
	bs := c.b.BlockSize()
	for i := range src {
		c.b.Encrypt(c.tmp, c.iv)
		in := src[i]
		dst[i] = in ^ c.tmp[0]
		copy(c.iv, c.iv[1:bs])
		c.iv[bs-1] = in
	}
}
