// Package signalset wraps the POSIX signal-masking protocol the rest
// of the engine relies on for correctness: install robust handlers,
// block/unblock a fixed set of signals around every job-table
// mutation, and suspend atomically at well-defined points.
//
// Go cannot run arbitrary code between a raw fork() and exec() (there
// is no safe two-step fork in a garbage-collected, multi-threaded
// runtime), so child-side signal-handler resetting is instead left to
// execve's own semantics (caught signals revert to SIG_DFL across
// exec) plus an explicit signal.Reset/signal.Ignore pair around the
// fork loop for the two signals the shell SIG_IGNs, since SIG_IGN
// (unlike a caught handler) survives exec — see internal/launcher.
// What remains here is the parent-side masking protocol, which maps
// directly onto golang.org/x/sys/unix's PthreadSigmask/Sigsuspend.
package signalset

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

// JobControlSet is the fixed set of signals blocked around every
// job-table mutation and foreground pipeline launch.
//
// These are spelled as syscall.Signal values since os/signal.Notify
// type-asserts its argument to syscall.Signal internally; that is the
// type that must flow through the Install/Dispatch path. toSigset
// converts to unix.Signal (a type alias of syscall.Signal) only at the
// PthreadSigmask/Sigsuspend boundary, which golang.org/x/sys/unix owns.
var JobControlSet = []os.Signal{syscall.SIGCHLD, syscall.SIGINT, syscall.SIGTSTP, syscall.SIGCONT}

func toSigset(sigs []os.Signal) unix.Sigset_t {
	var set unix.Sigset_t
	for _, s := range sigs {
		sig, ok := s.(syscall.Signal)
		if !ok {
			continue
		}
		addSignal(&set, unix.Signal(sig))
	}
	return set
}

// Facility owns the calling goroutine's locked OS thread and the
// process-wide async handler registrations. New must be called once,
// from the goroutine that will later call Block/Unblock/WaitForSignal
// (normally the REPL loop), before Install is used: pthread signal
// masks are per-OS-thread, and a goroutine not locked to one thread
// could have its mask silently reset by migrating.
type Facility struct {
	notify chan os.Signal
}

// New creates a Facility and locks the calling goroutine to its
// current OS thread (see type doc).
func New() *Facility {
	runtime.LockOSThread()
	return &Facility{notify: make(chan os.Signal, 64)}
}

// Install registers fn to run whenever sig is delivered. Passing a
// nil fn ignores the signal (SIG_IGN). Installed handlers are
// dispatched from a single background goroutine reading the
// Facility's notification channel, so they run serialized with
// respect to each other — the async-signal-safety a real C signal
// handler would need is naturally satisfied because Go never actually
// interrupts user code with this sort of handler; it multiplexes
// delivery onto a normal goroutine instead.
func (f *Facility) Install(sig os.Signal, fn func(os.Signal)) {
	if fn == nil {
		signal.Ignore(sig)
		return
	}
	signal.Notify(f.notify, sig)
	go func() {
		for s := range f.notify {
			if s == sig {
				fn(s)
			}
		}
	}()
}

// Dispatch starts a single goroutine that routes every signal
// delivered on the shared channel to the handler registered for it.
// handlers maps each signal to its callback, all registered in one
// call; it is a lighter-weight alternative to Install when several
// signals must share one dispatch loop (the reaper installs SIGCHLD, SIGINT,
// SIGTSTP, SIGQUIT this way so delivery order within a batch matches
// the order the kernel reported them).
func Dispatch(handlers map[os.Signal]func(os.Signal)) {
	ch := make(chan os.Signal, 64)
	sigs := make([]os.Signal, 0, len(handlers))
	for s := range handlers {
		sigs = append(sigs, s)
	}
	signal.Notify(ch, sigs...)
	go func() {
		for s := range ch {
			if fn, ok := handlers[s]; ok && fn != nil {
				fn(s)
			}
		}
	}()
}

// Block adds set to the calling thread's blocked signal mask and
// returns the previous mask so it can be restored with Unblock.
func (f *Facility) Block(set []os.Signal) unix.Sigset_t {
	var old unix.Sigset_t
	mask := toSigset(set)
	_ = unix.PthreadSigmask(unix.SIG_BLOCK, &mask, &old)
	return old
}

// Unblock restores a previously saved mask (from Block).
func (f *Facility) Unblock(old unix.Sigset_t) {
	_ = unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil)
}

// WaitForSignal atomically replaces the blocked mask with blocked and
// suspends until a signal outside blocked is delivered, then restores
// the mask the thread had before the call; it is implemented directly
// as sigsuspend(2). Foreground waits (internal/launcher,
// internal/builtins' fg) call this with nil — the blocked set lifted
// entirely — so any of SIGCHLD/SIGINT/SIGTSTP/SIGCONT can wake the
// wait.
func (f *Facility) WaitForSignal(blocked []os.Signal) {
	set := toSigset(blocked)
	_ = unix.Sigsuspend(&set)
}
