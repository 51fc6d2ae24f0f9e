// Package secret implements the scoped, page-locked allocation discipline
// that every passphrase, derived key, and plaintext key body in sshram is
// required to live in. A Buffer is pinned in physical memory on creation and
// must be released on every exit path, including error paths; release
// zeroizes the full range before unlocking and freeing it.
package secret

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/sshram/sshram/internal/errs"
)

// Buffer is a page-locked byte range with zero-on-release discipline. The
// zero value is not usable; construct one with Allocate.
type Buffer struct {
	data   []byte
	locked bool
}

// Allocate obtains n bytes and pins them in physical memory so the kernel
// cannot page them to swap. It fails with errs.MemoryLock when pinning is
// refused, or errs.Allocation when the allocation itself cannot be
// satisfied.
func Allocate(n int) (buf *Buffer, err error) {
	if n <= 0 {
		return nil, errs.New(errs.Allocation, fmt.Errorf("invalid length %d", n))
	}

	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, errs.New(errs.Allocation, fmt.Errorf("%v", r))
		}
	}()

	data := make([]byte, n)
	if lockErr := unix.Mlock(data); lockErr != nil {
		return nil, errs.New(errs.MemoryLock, lockErr)
	}
	buf = &Buffer{data: data, locked: true}

	// Best-effort backstop: if a caller forgets to Release before a Buffer
	// is collected, zero its storage rather than leaving plaintext parked
	// in (possibly unlocked, post-GC) memory indefinitely.
	runtime.AddCleanup(buf, zero, data)
	return buf, nil
}

// Bytes returns a mutable view of the buffer's contents. The returned slice
// aliases the buffer's storage; it becomes invalid after Release.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Len reports the length of the buffer in bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Release overwrites the buffer with zeros, unpins it, and frees it. It is
// safe to call on a nil Buffer or to call more than once; subsequent calls
// are no-ops. Callers acquire buffers in a stack and should defer Release
// immediately after a successful Allocate, so that nested secrets release in
// reverse acquisition order as the deferred calls unwind.
func (b *Buffer) Release() {
	if b == nil || b.data == nil {
		return
	}
	zero(b.data)
	if b.locked {
		_ = unix.Munlock(b.data)
		b.locked = false
	}
	b.data = nil
}

// zero overwrites data with zeros using a pattern the compiler cannot
// optimize away: the write targets heap memory that has already escaped
// through the Mlock syscall, and runtime.KeepAlive pins the slice alive
// through the final byte write so no store can be proven dead and elided.
func zero(data []byte) {
	for i := range data {
		data[i] = 0
	}
	runtime.KeepAlive(data)
}
