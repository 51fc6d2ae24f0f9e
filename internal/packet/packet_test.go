package packet_test

import (
	"bytes"
	"testing"

	"github.com/creachadair/mds/mtest"
	"github.com/google/go-cmp/cmp"
	"github.com/sshram/sshram/internal/packet"
)

func TestHeaderRoundTrip(t *testing.T) {
	salt := bytes.Repeat([]byte{0x11}, packet.SaltSize)
	nonce := bytes.Repeat([]byte{0x22}, packet.NonceSize)
	tag := bytes.Repeat([]byte{0x33}, packet.TagSize)

	h := packet.NewHeader(salt, nonce, tag)

	var buf bytes.Buffer
	n, err := h.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != packet.HeaderSize {
		t.Errorf("WriteTo wrote %d bytes, want %d", n, packet.HeaderSize)
	}

	got, err := packet.ParseHeader(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("round trip mismatch (-want, +got):\n%s", diff)
	}
}

func TestParseHeaderTruncated(t *testing.T) {
	if _, err := packet.ParseHeader(make([]byte, packet.HeaderSize-1)); err == nil {
		t.Errorf("ParseHeader(short): got nil error, want truncation error")
	}
}

func TestNewHeaderPanicsOnBadLengths(t *testing.T) {
	mtest.MustPanic(t, func() { packet.NewHeader([]byte{1, 2, 3}, nil, nil) })
}
