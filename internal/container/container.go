// Package container implements the fixed-layout sshram container file
// format: salt(16) ∥ nonce(12) ∥ tag(16) ∥ ciphertext(L), as described by
// [github.com/sshram/sshram/internal/packet]. Encoding derives a key from a
// passphrase with Argon2i and seals the plaintext with ChaCha20-Poly1305;
// decoding splits the header, derives the same key, and verifies the AEAD
// tag before releasing any plaintext.
package container

import (
	"fmt"
	"io"
	"runtime"

	"github.com/sshram/sshram/internal/cipher"
	"github.com/sshram/sshram/internal/entropy"
	"github.com/sshram/sshram/internal/errs"
	"github.com/sshram/sshram/internal/packet"
	"github.com/sshram/sshram/internal/passphrase"
	"github.com/sshram/sshram/internal/secret"
)

// KeySize is the length in bytes of the derived symmetric key.
const KeySize = cipher.KeyLen

// Encode measures the plaintext read from plain, derives a key from
// passphraseBuf and a fresh salt, seals the plaintext with a fresh nonce,
// and writes salt ∥ nonce ∥ tag ∥ ciphertext to out. The plaintext must be
// at least 2 bytes long.
func Encode(plain io.ReadSeeker, out io.Writer, passphraseBuf *secret.Buffer, verbose bool) error {
	end, err := plain.Seek(0, io.SeekEnd)
	if err != nil {
		return errs.New(errs.Tell, err)
	}
	if end < 2 {
		return errs.New(errs.PlaintextTooSmall, fmt.Errorf("plaintext is %d bytes", end))
	}
	if _, err := plain.Seek(0, io.SeekStart); err != nil {
		return errs.New(errs.Seek, err)
	}

	salt, err := entropy.Random(packet.SaltSize)
	if err != nil {
		return err
	}
	nonce, err := entropy.Random(packet.NonceSize)
	if err != nil {
		return err
	}

	keyBuf, err := secret.Allocate(KeySize)
	if err != nil {
		return err
	}
	defer keyBuf.Release()
	derived := cipher.DeriveKey(passphraseBuf.Bytes(), salt)
	copy(keyBuf.Bytes(), derived)
	zero(derived)

	plainBuf, err := secret.Allocate(int(end))
	if err != nil {
		return err
	}
	defer plainBuf.Release()
	if _, err := io.ReadFull(plain, plainBuf.Bytes()); err != nil {
		return errs.New(errs.Read, err)
	}

	sealedBuf, err := secret.Allocate(int(end) + cipher.TagLen)
	if err != nil {
		return err
	}
	defer sealedBuf.Release()

	ciphertext, tag, err := cipher.Seal(sealedBuf.Bytes(), keyBuf.Bytes(), nonce, plainBuf.Bytes())
	if err != nil {
		return errs.New(errs.KeyDerivation, err)
	}

	if verbose {
		fmt.Printf("salt: %x\nnonce: %x\ntag: %x\n", salt, nonce, tag)
	}

	header := packet.NewHeader(salt, nonce, tag)
	if _, err := header.WriteTo(out); err != nil {
		return errs.New(errs.Write, err)
	}
	if n, err := out.Write(ciphertext); err != nil || n != len(ciphertext) {
		return errs.New(errs.Write, err)
	}
	return nil
}

// Decode parses the container header from in, reads a passphrase from the
// terminal, derives a key, and verifies and decrypts the ciphertext. On
// success it returns the plaintext in a secret.Buffer owned by the caller.
// On authentication failure no plaintext bytes are returned.
func Decode(in io.ReadSeeker, verbose bool) (*secret.Buffer, error) {
	end, err := in.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errs.New(errs.Tell, err)
	}
	if end < packet.HeaderSize+2 {
		return nil, errs.New(errs.ContainerTooSmall, fmt.Errorf("container is %d bytes", end))
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, errs.New(errs.Seek, err)
	}

	rawHeader := make([]byte, packet.HeaderSize)
	if _, err := io.ReadFull(in, rawHeader); err != nil {
		return nil, errs.New(errs.Read, err)
	}
	header, err := packet.ParseHeader(rawHeader)
	if err != nil {
		return nil, errs.New(errs.Read, err)
	}

	if verbose {
		fmt.Printf("salt: %x\nnonce: %x\ntag: %x\n", header.Salt, header.Nonce, header.Tag)
	}

	plaintextLen := int(end) - packet.HeaderSize

	cipherBuf, err := secret.Allocate(plaintextLen)
	if err != nil {
		return nil, err
	}
	defer cipherBuf.Release()
	if _, err := io.ReadFull(in, cipherBuf.Bytes()); err != nil {
		return nil, errs.New(errs.Read, err)
	}

	passBuf, err := passphrase.Read("Please enter your passphrase: ")
	if err != nil {
		return nil, err
	}

	keyBuf, err := secret.Allocate(KeySize)
	if err != nil {
		passBuf.Release()
		return nil, err
	}
	derived := cipher.DeriveKey(passBuf.Bytes(), header.Salt[:])
	copy(keyBuf.Bytes(), derived)
	zero(derived)
	passBuf.Release()
	defer keyBuf.Release()

	plainBuf, err := secret.Allocate(plaintextLen)
	if err != nil {
		return nil, err
	}

	if _, err := cipher.Open(plainBuf.Bytes(), keyBuf.Bytes(), header.Nonce[:], cipherBuf.Bytes(), header.Tag[:]); err != nil {
		plainBuf.Release()
		return nil, errs.New(errs.AuthenticationFailed, err)
	}

	if verbose {
		fmt.Printf("plaintext: %s\n", plainBuf.Bytes())
	}

	return plainBuf, nil
}

// zero overwrites an unlocked intermediate such as cipher.DeriveKey's return
// value once its contents have been copied into a secret.Buffer. Without
// this, derived key material would sit in ordinary heap memory until the GC
// reclaims it.
func zero(data []byte) {
	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}
