// Package sshram protects an SSH private key at rest with a passphrase and
// later reveals it to local consumers, such as the SSH agent, through a
// named pipe in ~/.ssh rather than through a persistent file on disk.
package sshram

import "io"

// Action selects what Run does with a Config.
type Action int

const (
	// ActionExit does nothing and reports success.
	ActionExit Action = iota
	// ActionDecode reveals a previously encoded container over a FIFO.
	ActionDecode
	// ActionEncode produces a container file from a plaintext key.
	ActionEncode
)

// Config is the parsed, immutable configuration the driver operates on. The
// caller retains ownership of the file handles and is responsible for
// closing them; Run never closes EncodedFile or DecodedFile itself.
type Config struct {
	// Action selects the operation to perform.
	Action Action
	// EncodedFile is the container file: opened for writing on encode,
	// opened for reading on decode.
	EncodedFile io.ReadWriteSeeker
	// DecodedFile is the plaintext key file, open for reading. Required
	// only when Action is ActionEncode.
	DecodedFile io.ReadSeeker
	// KeyName names the FIFO under ~/.ssh. Run uses it as given; the
	// cmd/sshram CLI sets it to the basename of the container path unless
	// --name is given.
	KeyName string
	// KeepPipe, when true, leaves the FIFO on disk at decode shutdown.
	KeepPipe bool
	// Verbose enables diagnostic printing, including plaintext. Disabled by
	// default; this is intentionally insecure and exists for debugging
	// only.
	Verbose bool
}
