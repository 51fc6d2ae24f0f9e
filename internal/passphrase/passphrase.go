// Package passphrase reads a passphrase from the controlling terminal with
// local echo suppressed, delivering it directly into a page-locked
// secret.Buffer rather than an ordinary Go string.
package passphrase

import (
	"crypto/subtle"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/term"

	"github.com/sshram/sshram/internal/errs"
	"github.com/sshram/sshram/internal/secret"
)

// MaxLen is the maximum accepted passphrase length in bytes, matching the
// 257-byte buffer (256 bytes of content plus a terminator) of the original
// implementation.
const MaxLen = 257

// MinLen is the minimum passphrase length required by ReadAndConfirm.
const MinLen = 16

// Read prints prompt, suspends local echo on stdin for the duration of the
// read, and returns one line of input in a freshly acquired secret.Buffer.
// Echo is restored on every exit path because term.ReadPassword restores
// terminal state itself before returning.
func Read(prompt string) (*secret.Buffer, error) {
	fmt.Print(prompt)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errs.New(errs.TerminalInput, fmt.Errorf("stdin is not a terminal"))
	}

	line, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return nil, errs.New(errs.TerminalInput, err)
	}
	defer zero(line)

	if len(line) > MaxLen-1 {
		line = line[:MaxLen-1]
	}

	buf, err := secret.Allocate(len(line))
	if err != nil {
		return nil, err
	}
	copy(buf.Bytes(), line)
	return buf, nil
}

// ReadAndConfirm reads a passphrase twice and requires the two entries to
// match and to be at least MinLen bytes long. On any failure both
// intermediate buffers are released before returning.
func ReadAndConfirm() (*secret.Buffer, error) {
	first, err := Read("Please enter a passphrase (16-256 characters): ")
	if err != nil {
		return nil, err
	}

	second, err := Read("Please confirm this passphrase by typing it again: ")
	if err != nil {
		first.Release()
		return nil, err
	}
	defer second.Release()

	if first.Len() < MinLen {
		first.Release()
		return nil, errs.New(errs.PassphraseTooShort, fmt.Errorf("got %d bytes", first.Len()))
	}

	if subtle.ConstantTimeCompare(first.Bytes(), second.Bytes()) != 1 {
		first.Release()
		return nil, errs.New(errs.PassphraseMismatch, nil)
	}

	return first, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
