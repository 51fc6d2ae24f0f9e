package pipeserver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sshram/sshram/internal/errs"
	"github.com/sshram/sshram/internal/pipeserver"
)

func TestResolvePathRequiresHome(t *testing.T) {
	if _, err := pipeserver.ResolvePath("", "id_ed25519"); err == nil {
		t.Fatalf("ResolvePath(\"\", ...): got nil error, want errs.Environment")
	} else if kind, ok := errs.KindOf(err); !ok || kind != errs.Environment {
		t.Fatalf("ResolvePath(\"\", ...): got kind %v, want errs.Environment", kind)
	}
}

func TestResolvePathCreatesSSHDir(t *testing.T) {
	home := t.TempDir()
	path, err := pipeserver.ResolvePath(home, "id_ed25519")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	want := filepath.Join(home, ".ssh", "id_ed25519")
	if path != want {
		t.Errorf("ResolvePath = %q, want %q", path, want)
	}

	info, err := os.Stat(filepath.Join(home, ".ssh"))
	if err != nil {
		t.Fatalf("stat .ssh: %v", err)
	}
	if !info.IsDir() {
		t.Errorf(".ssh is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf(".ssh mode = %o, want 0700", perm)
	}
}

func TestResolvePathReusesExistingSSHDir(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, ".ssh"), 0o700); err != nil {
		t.Fatalf("premkdir: %v", err)
	}
	if _, err := pipeserver.ResolvePath(home, "id_rsa"); err != nil {
		t.Fatalf("ResolvePath with pre-existing .ssh: %v", err)
	}
}
