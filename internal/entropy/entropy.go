// Package entropy supplies uniformly random bytes for salts and nonces from
// an OS-provided cryptographically strong source.
package entropy

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/sshram/sshram/internal/errs"
)

// Random returns n fresh bytes read from the OS entropy source. It fails
// with errs.Entropy if fewer than n bytes can be read; a short read from
// crypto/rand.Reader is treated as fatal rather than silently accepted.
func Random(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(rand.Reader, buf)
	if err != nil {
		return nil, errs.New(errs.Entropy, err)
	}
	if got != n {
		return nil, errs.New(errs.Entropy, fmt.Errorf("short read: got %d, want %d", got, n))
	}
	return buf, nil
}
