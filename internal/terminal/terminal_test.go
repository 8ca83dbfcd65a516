package terminal

import (
	"os"
	"testing"
)

// A plain regular file is never a controlling terminal, so TIOCSPGRP/
// TIOCGPGRP against it must fail with ENOTTY — exactly the case GiveTo
// is required to treat as benign.
func openNonTTY(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "not-a-tty")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestGiveToNonTTYIsBenign(t *testing.T) {
	f := openNonTTY(t)
	c := New(f.Fd(), 1234)

	if err := c.GiveTo(999); err != nil {
		t.Errorf("GiveTo on a non-tty fd returned %v, want nil (ENOTTY swallowed)", err)
	}
}

func TestTakeBackUsesShellPGID(t *testing.T) {
	f := openNonTTY(t)
	c := New(f.Fd(), 4242)

	if c.ShellPGID() != 4242 {
		t.Fatalf("ShellPGID() = %d, want 4242", c.ShellPGID())
	}
	if err := c.TakeBack(); err != nil {
		t.Errorf("TakeBack on a non-tty fd returned %v, want nil", err)
	}
}

func TestCurrentForegroundOnNonTTY(t *testing.T) {
	f := openNonTTY(t)
	if _, err := currentForeground(int(f.Fd())); err == nil {
		t.Error("currentForeground on a non-tty fd returned no error, want ENOTTY")
	}
}
