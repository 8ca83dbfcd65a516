// Package reaper implements the SIGCHLD-driven state synchronizer: it
// drains every waitable event with a non-blocking, multiplexed wait
// and updates the job table to match kernel reality.
// It also forwards SIGINT/SIGTSTP to the foreground job and exits on
// SIGQUIT.
package reaper

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"stsh/internal/jobtable"
	"stsh/internal/process"
	"stsh/internal/signalset"
	"stsh/internal/terminal"
	"stsh/internal/trace"
)

// Reaper ties the job table to the kernel's child-process
// notifications and the terminal-generated signals.
type Reaper struct {
	table *jobtable.Table
	term  *terminal.Controller
	trace *trace.Sink
}

// New builds a Reaper over table, handing the terminal back to the
// shell (via term) whenever a foreground job is demoted to Background.
func New(table *jobtable.Table, term *terminal.Controller, tr *trace.Sink) *Reaper {
	return &Reaper{table: table, term: term, trace: tr}
}

// Install registers the Reaper's handlers on facility: SIGCHLD drains
// wait events, SIGINT/SIGTSTP forward to the foreground job's pgid (or
// are otherwise ignored), SIGQUIT exits the process immediately, and
// SIGTTIN/SIGTTOU are SIG_IGN so the shell never stops itself while
// manipulating the terminal.
func (r *Reaper) Install(facility *signalset.Facility) {
	signalset.Dispatch(map[os.Signal]func(os.Signal){
		syscall.SIGCHLD: func(os.Signal) { r.Drain() },
		syscall.SIGINT:  func(os.Signal) { r.forward(syscall.SIGINT) },
		syscall.SIGTSTP: func(os.Signal) { r.forward(syscall.SIGTSTP) },
		syscall.SIGQUIT: func(os.Signal) { os.Exit(0) },
	})
	facility.Install(syscall.SIGTTIN, nil)
	facility.Install(syscall.SIGTTOU, nil)
}

func (r *Reaper) forward(sig syscall.Signal) {
	fg := r.table.GetForegroundJob()
	if fg == nil {
		return
	}
	_ = unix.Kill(-fg.GroupID(), sig)
}

// Drain loops calling a non-blocking, multiplexed wait (equivalent to
// waitpid(-1, &status, WNOHANG|WUNTRACED|WCONTINUED)) until no more
// events are reported, updating process and job state for each one.
// Each invocation fully drains the kernel's queue of pending notifications
// before returning, so a fresh SIGCHLD arriving mid-drain just causes
// the next invocation to find nothing left to do.
func (r *Reaper) Drain() {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		if err != nil || pid <= 0 {
			return
		}

		j := r.table.GetJobWithProcess(pid)
		if j == nil {
			continue
		}
		p := j.GetProcess(pid)
		if p == nil {
			continue
		}

		switch {
		case ws.Exited(), ws.Signaled():
			p.SetState(process.Terminated)
			r.trace.Eventf("pid=%d job=%d state=Terminated", pid, j.Num())
		case ws.Stopped():
			p.SetState(process.Stopped)
			r.trace.Eventf("pid=%d job=%d state=Stopped", pid, j.Num())
		case ws.Continued():
			p.SetState(process.Running)
			r.trace.Eventf("pid=%d job=%d state=Running", pid, j.Num())
		default:
			continue
		}

		demoted, reclaimed := r.table.Synchronize(j)
		if demoted {
			_ = r.term.TakeBack()
			r.trace.Eventf("job=%d demoted to Background", j.Num())
		}
		if reclaimed {
			r.trace.Eventf("job=%d reclaimed", j.Num())
		}
	}
}
