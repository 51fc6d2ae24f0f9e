package secret_test

import (
	"bytes"
	"testing"

	"github.com/sshram/sshram/internal/errs"
	"github.com/sshram/sshram/internal/secret"
)

func TestAllocateRejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		_, err := secret.Allocate(n)
		if err == nil {
			t.Errorf("Allocate(%d): got nil error, want errs.Allocation", n)
			continue
		}
		if kind, ok := errs.KindOf(err); !ok || kind != errs.Allocation {
			t.Errorf("Allocate(%d): got kind %v, want errs.Allocation", n, kind)
		}
	}
}

func TestReleaseZeroizes(t *testing.T) {
	buf, err := secret.Allocate(32)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	copy(buf.Bytes(), bytes.Repeat([]byte{0xff}, 32))

	data := buf.Bytes()
	buf.Release()

	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zeroed after Release: got %#x", i, b)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("Len() after Release = %d, want 0", buf.Len())
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	buf, err := secret.Allocate(16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	buf.Release()
	buf.Release() // must not panic

	var nilBuf *secret.Buffer
	nilBuf.Release() // must not panic
	if got := nilBuf.Bytes(); got != nil {
		t.Errorf("nil Buffer Bytes() = %v, want nil", got)
	}
	if got := nilBuf.Len(); got != 0 {
		t.Errorf("nil Buffer Len() = %d, want 0", got)
	}
}

func TestBytesAliasesStorage(t *testing.T) {
	buf, err := secret.Allocate(8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	defer buf.Release()

	buf.Bytes()[0] = 'x'
	if buf.Bytes()[0] != 'x' {
		t.Errorf("Bytes() does not alias underlying storage")
	}
}
