// Package packet defines the binary storage representation of an sshram
// container, as read and written by package container.
//
// Container binary format
//
//	Pos   | Size    | Description
//	------|---------|--------------------------------------------------
//	0     | 16      | Argon2i salt
//	16    | 12      | ChaCha20-Poly1305 nonce
//	28    | 16      | AEAD authentication tag
//	44    | (rest)  | ciphertext, same length as the original plaintext
//
// Total container length is always HeaderSize + len(ciphertext).
package packet

import (
	"fmt"
	"io"
)

// Sizes of the fixed-length fields that make up a container header.
const (
	SaltSize   = 16
	NonceSize  = 12
	TagSize    = 16
	HeaderSize = SaltSize + NonceSize + TagSize
)

// Header holds the fixed-length fields that precede the ciphertext in a
// container file.
type Header struct {
	Salt  [SaltSize]byte
	Nonce [NonceSize]byte
	Tag   [TagSize]byte
}

// NewHeader builds a Header from freshly generated salt, nonce, and tag
// values. It panics if any slice has the wrong length; callers pass values
// already sized by the cipher and entropy layers, so a mismatch indicates a
// programming error rather than bad input.
func NewHeader(salt, nonce, tag []byte) Header {
	if len(salt) != SaltSize || len(nonce) != NonceSize || len(tag) != TagSize {
		panic(fmt.Sprintf("packet: bad field lengths (salt=%d nonce=%d tag=%d)", len(salt), len(nonce), len(tag)))
	}
	var h Header
	copy(h.Salt[:], salt)
	copy(h.Nonce[:], nonce)
	copy(h.Tag[:], tag)
	return h
}

// ParseHeader parses the first HeaderSize bytes of data as a Header.
// It fails if data is shorter than HeaderSize.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, fmt.Errorf("header truncated (%d < %d)", len(data), HeaderSize)
	}
	copy(h.Salt[:], data[:SaltSize])
	copy(h.Nonce[:], data[SaltSize:SaltSize+NonceSize])
	copy(h.Tag[:], data[SaltSize+NonceSize:HeaderSize])
	return h, nil
}

// WriteTo writes the header fields, in container order, to w.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, field := range [][]byte{h.Salt[:], h.Nonce[:], h.Tag[:]} {
		n, err := w.Write(field)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if n != len(field) {
			return total, fmt.Errorf("short write: wrote %d of %d bytes", n, len(field))
		}
	}
	return total, nil
}
