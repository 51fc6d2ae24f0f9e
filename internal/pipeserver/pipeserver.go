// Package pipeserver implements the key-delivery state machine: it locates
// or creates a FIFO under the user's ~/.ssh directory, watches it for
// consumer reads, and delivers a plaintext key body exactly once per reader
// session before looping for the next one. It tears down cleanly on
// interrupt.
package pipeserver

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"github.com/sshram/sshram/internal/errs"
	"github.com/sshram/sshram/internal/secret"
)

// Config configures a Server.
type Config struct {
	// Path is the absolute filesystem path of the FIFO.
	Path string
	// KeepPipe, when true, leaves the FIFO on disk at shutdown instead of
	// unlinking it.
	KeepPipe bool
	// Verbose enables progress diagnostics on stdout.
	Verbose bool
}

// ResolvePath computes the absolute FIFO path for a decode run: the
// ~/.ssh directory under home, joined with keyName. It fails with
// errs.Environment if home is empty, matching the requirement that HOME be
// set for decode. The ~/.ssh directory is created with mode 0700 if it does
// not already exist.
func ResolvePath(home, keyName string) (string, error) {
	if home == "" {
		return "", errs.New(errs.Environment, fmt.Errorf("HOME is not set"))
	}
	dir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errs.New(errs.Environment, err)
	}
	return filepath.Join(dir, keyName), nil
}

// Server is the key-delivery state machine described in spec §4.5. It owns
// the single plaintext secret.Buffer for its entire run and releases it on
// every exit path.
type Server struct {
	cfg       Config
	plaintext *secret.Buffer
	running   atomic.Bool
	watcher   *fsnotify.Watcher
}

// New constructs a Server that will deliver the contents of plaintext over
// the FIFO described by cfg. The Server takes ownership of plaintext and
// releases it when Run returns.
func New(cfg Config, plaintext *secret.Buffer) *Server {
	return &Server{cfg: cfg, plaintext: plaintext}
}

// errInterrupted is a sentinel returned internally by waitForEvent when the
// watch read was cut short by shutdown rather than by an actual filesystem
// event. It is distinct from the errs.Error that callers observe so the
// delivery loop can tell "stop" apart from "fail".
var errInterrupted = errors.New("pipeserver: interrupted")

// Run acquires or creates the FIFO, watches it for access events, and
// delivers the plaintext body once per reader session until interrupted by
// SIGINT/SIGTERM or until a fatal delivery error occurs. It always releases
// the plaintext buffer before returning, and unlinks the FIFO unless
// cfg.KeepPipe is set.
func (s *Server) Run() error {
	if err := s.acquireFIFO(); err != nil {
		s.plaintext.Release()
		return err
	}

	abort := func(err error) error {
		if !s.cfg.KeepPipe {
			if uerr := unix.Unlink(s.cfg.Path); uerr != nil && !os.IsNotExist(uerr) {
				err = errors.Join(err, errs.New(errs.FifoUnlink, uerr))
			}
		}
		s.plaintext.Release()
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return abort(errs.New(errs.WatchInit, err))
	}
	s.watcher = watcher

	if err := watcher.Add(s.cfg.Path); err != nil {
		watcher.Close()
		return abort(errs.New(errs.WatchAdd, err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		<-sigCh
		s.running.Store(false)
		close(done)
	}()

	s.running.Store(true)
	var loopErr error
	for s.running.Load() {
		if derr := s.deliverOnce(done); derr != nil {
			if !errors.Is(derr, errInterrupted) {
				loopErr = derr
			}
			break
		}
	}

	signal.Stop(sigCh)
	watcher.Close()

	var unlinkErr error
	if !s.cfg.KeepPipe {
		if uerr := unix.Unlink(s.cfg.Path); uerr != nil && !os.IsNotExist(uerr) {
			unlinkErr = errs.New(errs.FifoUnlink, uerr)
		}
	}
	s.plaintext.Release()

	return errors.Join(loopErr, unlinkErr)
}

// acquireFIFO reuses an existing FIFO at cfg.Path or creates one with mode
// 0600. A non-FIFO file already at the path is refused rather than
// overwritten.
func (s *Server) acquireFIFO() error {
	info, err := os.Lstat(s.cfg.Path)
	switch {
	case err == nil:
		if info.Mode()&os.ModeNamedPipe == 0 {
			return errs.New(errs.PathOccupied, fmt.Errorf("%s exists and is not a FIFO", s.cfg.Path))
		}
		return nil
	case os.IsNotExist(err):
		if mkErr := unix.Mkfifo(s.cfg.Path, 0o600); mkErr != nil {
			return errs.New(errs.FifoCreate, mkErr)
		}
		return nil
	default:
		return errs.New(errs.FifoCreate, err)
	}
}

// deliverOnce runs one iteration of the two-phase delivery protocol: open
// the FIFO for read+write so the open cannot block on an absent peer, write
// the first byte, wait for a consumer to read it, write the rest, close to
// signal end-of-stream, and wait for the final read. It returns
// errInterrupted if shutdown was requested while waiting for an event.
func (s *Server) deliverOnce(done <-chan struct{}) error {
	fd, err := unix.Open(s.cfg.Path, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return errs.New(errs.FifoOpen, err)
	}

	body := s.plaintext.Bytes()
	if len(body) == 0 {
		unix.Close(fd)
		return errs.New(errs.FifoWrite, fmt.Errorf("empty plaintext"))
	}

	if err := writeFull(fd, body[:1]); err != nil {
		unix.Close(fd)
		return errs.New(errs.FifoWrite, err)
	}

	if err := s.waitForEvent(done); err != nil {
		unix.Close(fd)
		return err
	}
	if !s.running.Load() {
		unix.Close(fd)
		return errInterrupted
	}

	if len(body) > 1 {
		if err := writeFull(fd, body[1:]); err != nil {
			unix.Close(fd)
			return errs.New(errs.FifoWrite, err)
		}
	}

	if err := unix.Close(fd); err != nil {
		return errs.New(errs.FifoClose, err)
	}

	if err := s.waitForEvent(done); err != nil {
		return err
	}

	if s.cfg.Verbose {
		fmt.Printf("delivered %d bytes over %s\n", len(body), s.cfg.Path)
	}
	return nil
}

// waitForEvent blocks until the watcher reports an event or error on the
// FIFO, or until done is closed because shutdown was requested. A shutdown
// is reported as errInterrupted, distinct from a genuine watch failure.
func (s *Server) waitForEvent(done <-chan struct{}) error {
	select {
	case _, ok := <-s.watcher.Events:
		if !ok {
			return errs.New(errs.WatchRead, fmt.Errorf("watch channel closed"))
		}
		return nil
	case err, ok := <-s.watcher.Errors:
		if !ok {
			err = fmt.Errorf("watch channel closed")
		}
		return errs.New(errs.WatchRead, err)
	case <-done:
		return errInterrupted
	}
}

func writeFull(fd int, data []byte) error {
	n, err := unix.Write(fd, data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write: wrote %d of %d bytes", n, len(data))
	}
	return nil
}
