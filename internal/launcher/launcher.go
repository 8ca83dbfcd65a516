// Package launcher implements pipeline launch: fork/pipe/dup2/exec
// orchestration with signal masking and terminal-ownership transfer.
// This is the hard, racy core of the shell.
package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"stsh/internal/job"
	"stsh/internal/jobtable"
	"stsh/internal/parser"
	"stsh/internal/process"
	"stsh/internal/shellerr"
	"stsh/internal/signalset"
	"stsh/internal/terminal"
	"stsh/internal/trace"
)

// Launcher builds jobs from parsed Pipelines and drives them to
// completion (for foreground jobs) or to backgrounding.
type Launcher struct {
	table    *jobtable.Table
	term     *terminal.Controller
	facility *signalset.Facility
	trace    *trace.Sink
}

// New builds a Launcher.
func New(table *jobtable.Table, term *terminal.Controller, facility *signalset.Facility, tr *trace.Sink) *Launcher {
	return &Launcher{table: table, term: term, facility: facility, trace: tr}
}

// Launch creates a job for p, forks every pipeline stage wired by N-1
// pipes and the given redirections, and, for a foreground job, blocks
// until the job is no longer foreground.
func (l *Launcher) Launch(p parser.Pipeline) error {
	// Prepare redirections before any fork: a missing input file
	// fails the whole command with nothing forked yet.
	infd, outfd := -1, -1
	if p.Input != "" {
		f, err := os.Open(p.Input)
		if err != nil {
			return shellerr.OSf(err, "No such file or directory: %s", p.Input)
		}
		defer f.Close()
		infd = int(f.Fd())
	}
	if p.Output != "" {
		flags := os.O_WRONLY | os.O_CREATE
		if p.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(p.Output, flags, 0644)
		if err != nil {
			return shellerr.OSf(err, "Error opening output file: %s", p.Output)
		}
		defer f.Close()
		outfd = int(f.Fd())
	}

	// A raw two-step fork()+exec() can't be expressed safely in Go (see
	// internal/signalset's package doc), so "the child fails at execvp
	// and prints a diagnostic" is emulated as a pre-flight
	// exec.LookPath check on every stage: on failure, nothing is forked
	// at all, which trivially keeps the job table consistent for the
	// overwhelmingly common failure case. See DESIGN.md's Open
	// Question notes for how this changes partial-pipeline-failure
	// behavior.
	count := len(p.Commands)
	binaries := make([]string, count)
	for i, c := range p.Commands {
		bin, err := exec.LookPath(c.Command)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: Command not found.\n", c.Command)
			return shellerr.Execf(err, "%s: Command not found.", c.Command)
		}
		binaries[i] = bin
	}

	// 3. Create N-1 pipes.
	pipes := make([][2]*os.File, 0, count-1)
	for i := 0; i < count-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			for _, pr := range pipes {
				pr[0].Close()
				pr[1].Close()
			}
			return shellerr.OSf(err, "Error creating pipe")
		}
		pipes = append(pipes, [2]*os.File{r, w})
	}
	closePipes := func() {
		for _, pr := range pipes {
			pr[0].Close()
			pr[1].Close()
		}
	}

	// Reserve the job.
	initial := job.Background
	if !p.Background {
		initial = job.Foreground
	}
	j := l.table.AddJob(initial)

	// Block {SIGCHLD, SIGINT, SIGTSTP, SIGCONT} for the duration of the
	// fork loop and the table updates that follow it.
	saved := l.facility.Block(signalset.JobControlSet)
	defer l.facility.Unblock(saved)

	// SIGTTIN/SIGTTOU are SIG_IGN in the shell, and SIG_IGN (unlike a
	// caught handler) survives exec. Reset them to default around the
	// fork loop so children aren't insulated from terminal signals they
	// never asked to ignore, then restore.
	signal.Reset(syscall.SIGTTIN, syscall.SIGTTOU)
	defer signal.Ignore(syscall.SIGTTIN, syscall.SIGTTOU)

	pgid := 0
	for i := 0; i < count; i++ {
		files := []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd()}

		switch {
		case i == 0 && infd >= 0:
			files[0] = uintptr(infd)
		case i > 0:
			files[0] = pipes[i-1][0].Fd()
		}
		switch {
		case i == count-1 && outfd >= 0:
			files[1] = uintptr(outfd)
		case i < count-1:
			files[1] = pipes[i][1].Fd()
		}

		pid, err := syscall.ForkExec(binaries[i], p.Commands[i].Argv(), &syscall.ProcAttr{
			Files: files,
			Sys: &syscall.SysProcAttr{
				Setpgid: true,
				Pgid:    pgid,
			},
		})
		if err != nil {
			closePipes()
			l.table.Synchronize(j)
			return shellerr.OSf(err, "Error during fork/exec of %s", p.Commands[i].Command)
		}

		if pgid == 0 {
			pgid = pid
		}
		_ = syscall.Setpgid(pid, pgid) // defensive: race-free from either side

		proc := process.New(pid, p.Commands[i].Argv())
		j.AddProcess(proc)
		l.table.RegisterProcess(j, pid)
		l.trace.Eventf("pid=%d job=%d stage=%d argv=%q", pid, j.Num(), i, p.Commands[i].Argv())
	}

	// Close every pipe fd in the parent; it is neither producer nor
	// consumer.
	closePipes()

	if p.Background {
		// Announce and leave the terminal with the shell.
		fmt.Printf("[%d]", j.Num())
		for _, proc := range j.Processes() {
			fmt.Printf(" %d", proc.PID())
		}
		fmt.Println()
		return nil
	}

	// Transfer the terminal, then wait for the job to leave the
	// foreground, tolerating spurious wakeups and unrelated signals.
	if err := l.term.GiveTo(j.GroupID()); err != nil {
		return shellerr.OSf(err, "authority error")
	}

	for l.table.GetForegroundJob() == j {
		l.facility.WaitForSignal(nil)
	}

	_ = l.term.TakeBack()
	return nil
}
