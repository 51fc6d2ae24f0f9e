// Package errs defines the tagged error taxonomy shared by every sshram
// component. It replaces a global error register with a result type that
// carries its kind through ordinary Go error returns.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies the category of failure reported by an operation.
type Kind int

const (
	Unknown Kind = iota

	// Arg: command-line argument handling.
	ArgDecoded
	ArgDecodedOpen
	ArgEncoded
	ArgEncodedOpen
	ArgName

	// Secret memory.
	Allocation
	MemoryLock

	// Input.
	TerminalInput
	PassphraseTooShort
	PassphraseMismatch
	Environment

	// File.
	Seek
	Tell
	Read
	Write
	PlaintextTooSmall
	ContainerTooSmall

	// Crypto.
	Entropy
	KeyDerivation
	AuthenticationFailed

	// Delivery.
	PathOccupied
	FifoCreate
	FifoOpen
	FifoWrite
	FifoClose
	FifoUnlink
	WatchInit
	WatchAdd
	WatchRead
	WatchInterrupted
	SignalInstall
)

var messages = map[Kind]string{
	Unknown: "unknown error",

	ArgDecoded:     "couldn't get a decoded file name (please give exactly one)",
	ArgDecodedOpen: "couldn't open the decoded (plaintext) file",
	ArgEncoded:     "couldn't get an encoded file name (please give exactly one)",
	ArgEncodedOpen: "couldn't open the encoded (container) file",
	ArgName:        "couldn't set the pipe name (please give exactly one)",

	Allocation: "couldn't allocate secret memory",
	MemoryLock: "couldn't lock secret memory",

	TerminalInput:      "couldn't read from the terminal",
	PassphraseTooShort: "passphrase is not long enough (please use 16 bytes or more)",
	PassphraseMismatch: "passphrases did not match",
	Environment:        "couldn't resolve environment (HOME is not set or ~/.ssh cannot be created)",

	Seek:              "couldn't move the file cursor",
	Tell:              "couldn't get the file cursor position",
	Read:              "couldn't read file",
	Write:             "couldn't write file",
	PlaintextTooSmall: "plaintext key is too small (need at least 2 bytes)",
	ContainerTooSmall: "container file is too small to be valid",

	Entropy:              "couldn't read enough entropy",
	KeyDerivation:        "couldn't derive key from passphrase",
	AuthenticationFailed: "authentication failed: wrong passphrase or corrupt container",

	PathOccupied:     "the pipe path points to a file that is not a FIFO",
	FifoCreate:       "couldn't create the FIFO",
	FifoOpen:         "couldn't open the FIFO",
	FifoWrite:        "couldn't write to the FIFO",
	FifoClose:        "couldn't close the FIFO",
	FifoUnlink:       "couldn't remove the FIFO",
	WatchInit:        "couldn't initialize the filesystem watch",
	WatchAdd:         "couldn't add a filesystem watch",
	WatchRead:        "couldn't read a filesystem watch event",
	WatchInterrupted: "interrupted by signal",
	SignalInstall:    "couldn't install signal handler",
}

// Message returns the human-readable description for k.
func Message(k Kind) string {
	if m, ok := messages[k]; ok {
		return m
	}
	return messages[Unknown]
}

// Error is a tagged error carrying a Kind and an optional underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

// New constructs an *Error for k wrapping err. err may be nil, in which case
// the message for k stands alone.
func New(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return Message(e.Kind)
	}
	return fmt.Sprintf("%s: %v", Message(e.Kind), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, errs.New(errs.SomeKind, nil)) works without inspecting Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the Kind of err if it (or something it wraps) is an
// *Error, and reports whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return Unknown, false
}
