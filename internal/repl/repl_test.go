package repl

import (
	"bytes"
	"os"
	"runtime"
	"strings"
	"testing"

	"stsh/internal/builtins"
	"stsh/internal/jobtable"
	"stsh/internal/launcher"
	"stsh/internal/reaper"
	"stsh/internal/readline"
	"stsh/internal/signalset"
	"stsh/internal/terminal"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func newTestLoop(in string) *Loop {
	table := jobtable.New(os.Getpid())
	term := terminal.New(0, os.Getpid())
	facility := signalset.New()
	reaper.New(table, term, nil).Install(facility)

	bi := builtins.New(table, term, facility, nil)
	la := launcher.New(table, term, facility, nil)
	reader := readline.New(strings.NewReader(in), &bytes.Buffer{}, "")
	return New(reader, bi, la, table, os.Getpid())
}

func TestRunQuitExitsZero(t *testing.T) {
	requireUnix(t)
	loop := newTestLoop("quit\n")
	if status := loop.Run(); status != 0 {
		t.Errorf("Run() with a leading quit = %d, want 0", status)
	}
}

func TestRunEOFExitsZero(t *testing.T) {
	requireUnix(t)
	loop := newTestLoop("")
	if status := loop.Run(); status != 0 {
		t.Errorf("Run() on empty input = %d, want 0", status)
	}
}

func TestRunReportsParseErrorsAndContinues(t *testing.T) {
	requireUnix(t)
	loop := newTestLoop("| broken\nquit\n")
	if status := loop.Run(); status != 0 {
		t.Errorf("Run() after a parse error = %d, want 0 (loop should continue)", status)
	}
}

func TestRunExecutesBuiltinThenQuits(t *testing.T) {
	requireUnix(t)
	loop := newTestLoop("jobs\nquit\n")
	if status := loop.Run(); status != 0 {
		t.Errorf("Run() = %d, want 0", status)
	}
}
