package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sshram/sshram/internal/errs"
)

func TestErrorFormatting(t *testing.T) {
	wrapped := fmt.Errorf("disk full")
	err := errs.New(errs.Write, wrapped)

	if got, want := err.Error(), "couldn't write file: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, wrapped) {
		t.Errorf("errors.Is(err, wrapped) = false, want true")
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := errs.New(errs.PassphraseMismatch, nil)
	if got, want := err.Error(), errs.Message(errs.PassphraseMismatch); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestIsMatchesByKind(t *testing.T) {
	a := errs.New(errs.FifoOpen, fmt.Errorf("one cause"))
	b := errs.New(errs.FifoOpen, fmt.Errorf("a different cause"))
	c := errs.New(errs.FifoClose, nil)

	if !errors.Is(a, b) {
		t.Errorf("errors.Is(a, b) = false, want true (same Kind)")
	}
	if errors.Is(a, c) {
		t.Errorf("errors.Is(a, c) = true, want false (different Kind)")
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", errs.New(errs.AuthenticationFailed, nil))
	kind, ok := errs.KindOf(err)
	if !ok {
		t.Fatalf("KindOf: ok = false, want true")
	}
	if kind != errs.AuthenticationFailed {
		t.Errorf("KindOf: got %v, want %v", kind, errs.AuthenticationFailed)
	}

	if _, ok := errs.KindOf(fmt.Errorf("plain error")); ok {
		t.Errorf("KindOf(plain error): ok = true, want false")
	}
}

func TestMessageFallsBackToUnknown(t *testing.T) {
	if got, want := errs.Message(errs.Kind(9999)), errs.Message(errs.Unknown); got != want {
		t.Errorf("Message(invalid) = %q, want %q", got, want)
	}
}
