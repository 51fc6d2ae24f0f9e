// Program sshram protects an SSH private key at rest with a passphrase and
// reveals it to local consumers on demand through a named pipe in ~/.ssh.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"

	"github.com/sshram/sshram"
	"github.com/sshram/sshram/internal/errs"
)

var flags struct {
	Encode       string `flag:"encode,Encode mode: path to the plaintext key to encode"`
	EncodeShort  string `flag:"e,Encode mode (short form of --encode)"`
	Name         string `flag:"name,Override the FIFO name (default: basename of the container file)"`
	NameShort    string `flag:"n,Override the FIFO name (short form of --name)"`
	Keep         bool   `flag:"keep,Do not unlink the FIFO on decode shutdown"`
	KeepShort    bool   `flag:"k,Do not unlink the FIFO (short form of --keep)"`
	Verbose      bool   `flag:"verbose,Print diagnostic information, including plaintext"`
	VerboseShort bool   `flag:"v,Print diagnostic information (short form of --verbose)"`
	Help         bool   `flag:"help,Print usage information"`
	HelpShort    bool   `flag:"h,Print usage information (short form of --help)"`
}

const usageText = `usage:
    sshram [options] <container-file>

options:
    -e, --encode <decoded file>
        encode mode: specify a plaintext SSH private key to encode into
        <container-file>

    -n, --name <pipe name>
        override the pipe name (the base name of <container-file> is used
        by default)

    -k, --keep
        do not unlink the FIFO after the delivery loop exits

    -v, --verbose
        print diagnostic information (salt, nonce, tag, and the decoded
        plaintext private key); disabled by default

    -h, --help
        print this message and exit
`

func main() {
	root := &command.C{
		Name: command.ProgramName(),
		Help: `Protect an SSH private key at rest with a passphrase, and reveal it to
local consumers such as the SSH agent on demand through a named pipe in
~/.ssh.`,
		SetFlags: command.Flags(flax.MustBind, &flags),
		Run:      command.Adapt(run),
	}
	command.RunOrFail(root.NewEnv(nil), os.Args[1:])
}

func run(env *command.Env, args ...string) error {
	if flags.Help || flags.HelpShort {
		fmt.Print(usageText)
		return nil
	}

	if len(args) == 0 {
		fmt.Print(usageText)
		return nil
	}
	if len(args) > 1 {
		return env.Usagef("unexpected extra argument: %v", args[1:])
	}

	containerPath := args[0]
	encodePath := firstNonEmpty(flags.Encode, flags.EncodeShort)

	cfg := &sshram.Config{
		KeepPipe: flags.Keep || flags.KeepShort,
		Verbose:  flags.Verbose || flags.VerboseShort,
	}

	if encodePath != "" {
		cfg.Action = sshram.ActionEncode

		df, err := os.Open(encodePath)
		if err != nil {
			return errs.New(errs.ArgDecodedOpen, err)
		}
		defer df.Close()
		cfg.DecodedFile = df

		ef, err := os.OpenFile(containerPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return errs.New(errs.ArgEncodedOpen, err)
		}
		defer ef.Close()
		cfg.EncodedFile = ef
	} else {
		cfg.Action = sshram.ActionDecode

		ef, err := os.Open(containerPath)
		if err != nil {
			return errs.New(errs.ArgEncodedOpen, err)
		}
		defer ef.Close()
		cfg.EncodedFile = ef
	}

	if name := firstNonEmpty(flags.Name, flags.NameShort); name != "" {
		cfg.KeyName = name
	} else {
		cfg.KeyName = filepath.Base(containerPath)
	}

	if err := sshram.Run(cfg); err != nil {
		fmt.Fprintln(env, describe(err))
		return err
	}
	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func describe(err error) string {
	return fmt.Sprintf("sshram: %v", err)
}
