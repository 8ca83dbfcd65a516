// Package terminal transfers controlling-terminal ownership between
// the shell's own process group and a job's process group. The shell
// always holds the terminal except while a specific Foreground Job is
// executing.
package terminal

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Controller remembers the shell's own process group so
// TakeBack can always return to it without re-querying the kernel on
// every call.
type Controller struct {
	shellPGID int
	fd        int
}

// New builds a Controller for the given controlling-terminal fd
// (normally os.Stdin.Fd()). shellPGID is the shell's own process
// group, queried once at startup.
func New(fd uintptr, shellPGID int) *Controller {
	return &Controller{shellPGID: shellPGID, fd: int(fd)}
}

// GiveTo sets the controlling terminal's foreground process group to
// pgid. ENOTTY (no controlling terminal, e.g. running under a test
// harness or a pipe) is benign and ignored; any other error is
// returned for the caller to treat as fatal for the current command.
func (c *Controller) GiveTo(pgid int) error {
	if err := unix.IoctlSetPointerInt(c.fd, unix.TIOCSPGRP, pgid); err != nil {
		if errors.Is(err, unix.ENOTTY) {
			return nil
		}
		return err
	}
	return nil
}

// TakeBack hands the terminal back to the shell's own process group.
func (c *Controller) TakeBack() error {
	return c.GiveTo(c.shellPGID)
}

// ShellPGID returns the shell's own process group.
func (c *Controller) ShellPGID() int { return c.shellPGID }

// currentForeground is used only by tests to confirm a handoff
// actually took effect; it reads back the terminal's current
// foreground pgid.
func currentForeground(fd int) (int, error) {
	return unix.IoctlGetInt(fd, unix.TIOCGPGRP)
}
