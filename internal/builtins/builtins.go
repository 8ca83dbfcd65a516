// Package builtins implements the job-control commands the shell
// handles directly instead of forking: fg, bg, slay, halt, cont, jobs,
// quit/exit, and cd (an ambient convenience builtin alongside the
// job-control ones).
package builtins

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"stsh/internal/job"
	"stsh/internal/jobtable"
	"stsh/internal/shellerr"
	"stsh/internal/signalset"
	"stsh/internal/terminal"
	"stsh/internal/trace"
)

// ErrQuit is returned by Dispatch when the line was "quit" or "exit";
// the REPL (cmd/stsh, internal/repl) treats it as a request to stop
// with status 0.
var ErrQuit = errors.New("quit")

// Names lists the recognized builtin command words.
var Names = map[string]bool{
	"quit": true, "exit": true, "jobs": true, "cd": true,
	"fg": true, "bg": true, "slay": true, "halt": true, "cont": true,
}

// Builtins dispatches builtin command words to their handlers.
type Builtins struct {
	table    *jobtable.Table
	term     *terminal.Controller
	facility *signalset.Facility
	trace    *trace.Sink
}

// New builds a Builtins dispatcher.
func New(table *jobtable.Table, term *terminal.Controller, facility *signalset.Facility, tr *trace.Sink) *Builtins {
	return &Builtins{table: table, term: term, facility: facility, trace: tr}
}

// Dispatch runs the builtin named by args[0]. Precondition: Names[args[0]]
// is true.
func (b *Builtins) Dispatch(args []string) error {
	switch args[0] {
	case "quit", "exit":
		return ErrQuit
	case "jobs":
		fmt.Print(b.table.Listing())
		return nil
	case "cd":
		return b.cd(args[1:])
	case "fg":
		return b.fg(args[1:])
	case "bg":
		return b.bg(args[1:])
	case "slay":
		return b.signalTarget(args[1:], unix.SIGKILL, "slay")
	case "halt":
		return b.signalTarget(args[1:], unix.SIGSTOP, "halt")
	case "cont":
		return b.signalTarget(args[1:], unix.SIGCONT, "cont")
	default:
		return shellerr.Userf("Internal Error: Builtin command not supported.")
	}
}

func (b *Builtins) cd(args []string) error {
	dir := os.Getenv("HOME")
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return nil
	}
	if err := os.Chdir(dir); err != nil {
		return shellerr.Userf("cd: No such file or directory: %s", dir)
	}
	return nil
}

// parseNonNegative parses a non-negative integer with no trailing
// garbage, the rule applied identically across every builtin that
// takes a numeric job or pid argument (see DESIGN.md).
func parseNonNegative(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (b *Builtins) fg(args []string) error {
	if len(args) != 1 {
		return shellerr.Userf("Usage: fg <jobid>.")
	}
	num, ok := parseNonNegative(args[0])
	if !ok {
		return shellerr.Userf("Usage: fg <jobid>.")
	}
	j := b.table.GetJob(num)
	if j == nil {
		return shellerr.Userf("fg %d:  No such job.", num)
	}

	saved := b.facility.Block(signalset.JobControlSet)
	for _, p := range j.Processes() {
		_ = unix.Kill(p.PID(), unix.SIGCONT)
	}
	j.SetState(job.Foreground)
	b.table.Synchronize(j)
	b.facility.Unblock(saved)

	if err := b.term.GiveTo(j.GroupID()); err != nil {
		return shellerr.OSf(err, "authority error")
	}
	for b.table.GetForegroundJob() == j {
		b.facility.WaitForSignal(nil)
	}
	_ = b.term.TakeBack()
	return nil
}

func (b *Builtins) bg(args []string) error {
	if len(args) != 1 {
		return shellerr.Userf("Usage: bg <jobid>.")
	}
	num, ok := parseNonNegative(args[0])
	if !ok {
		return shellerr.Userf("Usage: bg <jobid>.")
	}
	j := b.table.GetJob(num)
	if j == nil {
		return shellerr.Userf("bg %d:  No such job.", num)
	}

	saved := b.facility.Block(signalset.JobControlSet)
	defer b.facility.Unblock(saved)

	for _, p := range j.Processes() {
		_ = unix.Kill(p.PID(), unix.SIGCONT)
	}
	j.SetState(job.Background)
	b.table.Synchronize(j)
	return nil
}

// signalTarget implements slay/halt/cont: "<name> <jobnum> <idx>" to
// target one process within a job, or "<name> <pid>" to target a pid
// directly known to the table.
func (b *Builtins) signalTarget(args []string, sig unix.Signal, name string) error {
	saved := b.facility.Block(signalset.JobControlSet)
	defer b.facility.Unblock(saved)

	switch len(args) {
	case 1:
		pid, ok := parseNonNegative(args[0])
		if !ok {
			return shellerr.Userf("Usage: %s <jobid> <index> | %s <pid>.", name, name)
		}
		if !b.table.ContainsProcess(pid) {
			return shellerr.Userf("No process with pid %d.", pid)
		}
		_ = unix.Kill(pid, sig)
		if j := b.table.GetJobWithProcess(pid); j != nil {
			b.table.Synchronize(j)
		}
		return nil
	case 2:
		num, ok1 := parseNonNegative(args[0])
		idx, ok2 := parseNonNegative(args[1])
		if !ok1 || !ok2 {
			return shellerr.Userf("Usage: %s <jobid> <index> | %s <pid>.", name, name)
		}
		j := b.table.GetJob(num)
		if j == nil {
			return shellerr.Userf("%s %d:  No such job.", name, num)
		}
		procs := j.Processes()
		if idx >= len(procs) {
			return shellerr.Userf("%s: No process at index %d in job %d.", name, idx, num)
		}
		_ = unix.Kill(procs[idx].PID(), sig)
		b.table.Synchronize(j)
		return nil
	default:
		return shellerr.Userf("Usage: %s <jobid> <index> | %s <pid>.", name, name)
	}
}
