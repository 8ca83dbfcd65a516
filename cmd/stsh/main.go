// Command stsh is an interactive, job-control Unix shell: it reads
// command lines, launches pipelines as jobs tracked through a process
// group, and exposes job-control builtins (fg, bg, jobs, slay, halt,
// cont) to manage them.
package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/pflag"

	"stsh/internal/builtins"
	"stsh/internal/jobtable"
	"stsh/internal/launcher"
	"stsh/internal/reaper"
	"stsh/internal/readline"
	"stsh/internal/repl"
	"stsh/internal/signalset"
	"stsh/internal/terminal"
	"stsh/internal/trace"
)

func main() {
	histFile := pflag.String("histfile", "", "history file location, forwarded to the line reader")
	debugLog := pflag.String("debug-log", "", "rotating trace log of job/signal events (disabled if empty)")
	pflag.Parse()

	shellPID := os.Getpid()

	facility := signalset.New()

	tr, err := trace.Open(*debugLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, "stsh: could not open debug log:", err)
		os.Exit(1)
	}

	// Put the shell in its own process group and claim the terminal, so
	// job pgids created later are never confused with the shell's own.
	_ = syscall.Setpgid(0, shellPID)
	shellPGID, err := syscall.Getpgid(shellPID)
	if err != nil {
		shellPGID = shellPID
	}

	term := terminal.New(os.Stdin.Fd(), shellPGID)
	_ = term.GiveTo(shellPGID)

	table := jobtable.New(shellPID)

	r := reaper.New(table, term, tr)
	r.Install(facility)

	bi := builtins.New(table, term, facility, tr)
	la := launcher.New(table, term, facility, tr)
	reader := readline.New(os.Stdin, os.Stdout, *histFile)

	loop := repl.New(reader, bi, la, table, shellPID)
	status := loop.Run()

	_ = tr.Close()
	os.Exit(status)
}
