package sshram

import (
	"os"

	"github.com/sshram/sshram/internal/container"
	"github.com/sshram/sshram/internal/passphrase"
	"github.com/sshram/sshram/internal/pipeserver"
)

// Run dispatches cfg to the encode or decode core, composing the
// passphrase reader, container codec, and pipe server. It returns the first
// error raised by any phase; every phase is responsible for releasing its
// own secret buffers on every exit path, so Run itself holds no secret
// material.
func Run(cfg *Config) error {
	switch cfg.Action {
	case ActionExit:
		return nil
	case ActionEncode:
		return runEncode(cfg)
	case ActionDecode:
		return runDecode(cfg)
	default:
		return nil
	}
}

func runEncode(cfg *Config) error {
	passBuf, err := passphrase.ReadAndConfirm()
	if err != nil {
		return err
	}
	defer passBuf.Release()

	return container.Encode(cfg.DecodedFile, cfg.EncodedFile, passBuf, cfg.Verbose)
}

func runDecode(cfg *Config) error {
	plainBuf, err := container.Decode(cfg.EncodedFile, cfg.Verbose)
	if err != nil {
		return err
	}

	path, err := pipeserver.ResolvePath(os.Getenv("HOME"), cfg.KeyName)
	if err != nil {
		plainBuf.Release()
		return err
	}

	srv := pipeserver.New(pipeserver.Config{
		Path:     path,
		KeepPipe: cfg.KeepPipe,
		Verbose:  cfg.Verbose,
	}, plainBuf)

	return srv.Run()
}
