// Package jobtable owns every live job, allocates job numbers, and
// reconciles job/process state after every reaper or builtin
// mutation.
package jobtable

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"stsh/internal/job"
	"stsh/internal/process"
)

// Table owns all jobs. All mutators assume the caller has already
// blocked {SIGCHLD, SIGINT, SIGTSTP, SIGCONT}; the mutex here only
// protects against the REPL goroutine and the signal-delivery
// goroutine racing on the same process, which the masking discipline
// is meant to prevent in the first place but which costs nothing to
// also guard directly.
type Table struct {
	mu       sync.Mutex
	byNum    map[int]*job.Job
	byPid    map[int]*job.Job
	nextNum  int
	shellPID int
	done     []string
}

// New constructs an empty table. shellPID is the shell's own pid,
// used by callers that need to distinguish "the shell" from a job
// member (e.g. for diagnostics); the table itself never signals it.
func New(shellPID int) *Table {
	return &Table{
		byNum:    make(map[int]*job.Job),
		byPid:    make(map[int]*job.Job),
		nextNum:  1,
		shellPID: shellPID,
	}
}

// AddJob allocates the smallest unused job number and inserts a new,
// empty job in the given initial state.
func (t *Table) AddJob(initial job.State) *job.Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	num := t.allocNumLocked()
	j := job.New(num, initial)
	t.byNum[num] = j
	return j
}

func (t *Table) allocNumLocked() int {
	for n := 1; ; n++ {
		if _, used := t.byNum[n]; !used {
			return n
		}
	}
}

// RegisterProcess records that pid belongs to j, so GetJobWithProcess
// can find it. Must be called every time the launcher adds a process
// to a job.
func (t *Table) RegisterProcess(j *job.Job, pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byPid[pid] = j
}

// ContainsJob reports whether num names a live job.
func (t *Table) ContainsJob(num int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byNum[num]
	return ok
}

// GetJob returns the job with the given number, or nil.
func (t *Table) GetJob(num int) *job.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byNum[num]
}

// ContainsProcess reports whether pid belongs to any live job.
func (t *Table) ContainsProcess(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byPid[pid]
	return ok
}

// GetJobWithProcess returns the job owning pid, or nil.
func (t *Table) GetJobWithProcess(pid int) *job.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byPid[pid]
}

// HasForegroundJob reports whether a foreground job currently exists.
// At most one job can be Foreground at a time.
func (t *Table) HasForegroundJob() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.foregroundLocked() != nil
}

// GetForegroundJob returns the unique foreground job, or nil.
func (t *Table) GetForegroundJob() *job.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.foregroundLocked()
}

func (t *Table) foregroundLocked() *job.Job {
	for _, j := range t.byNum {
		if j.State() == job.Foreground {
			return j
		}
	}
	return nil
}

// Synchronize is the central reconciliation primitive: call it after
// every state change to any process in j. If every
// process has terminated, the job is reclaimed: removed from both
// indices and its number released for reuse. Otherwise, if j was
// Foreground and every remaining process is now Stopped, the job is
// demoted to Background (the caller is responsible for handing the
// terminal back to the shell in that case — see internal/terminal).
//
// Returns (demoted, reclaimed) so callers can react (hand back the
// terminal, print a "Done" notice) without re-deriving the job's
// previous state themselves.
func (t *Table) Synchronize(j *job.Job) (demoted, reclaimed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if j.AllTerminated() {
		for _, p := range j.Processes() {
			delete(t.byPid, p.PID())
		}
		delete(t.byNum, j.Num())
		if j.State() == job.Background {
			t.done = append(t.done, fmt.Sprintf("[%d]+  Done                    %s", j.Num(), j.CommandLine()))
		}
		return false, true
	}

	if j.State() == job.Foreground && j.AllStopped() {
		j.SetState(job.Background)
		return true, false
	}

	return false, false
}

// ForEachProcess invokes fn for every process in every live job,
// useful for signal forwarding (e.g. the reaper's SIGINT/SIGTSTP
// handlers operate on a job's pgid directly, but builtins that target
// a specific process index need this kind of table-wide scan).
func (t *Table) ForEachProcess(fn func(j *job.Job, p *process.Process)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, j := range t.byNum {
		for _, p := range j.Processes() {
			fn(j, p)
		}
	}
}

// Listing renders the full jobs table: one line per job in
// job-number order, "[num] (pgid) state: command ...",
// followed by one indented "pid state command" line per process.
func (t *Table) Listing() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	nums := make([]int, 0, len(t.byNum))
	for n := range t.byNum {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var b strings.Builder
	for _, n := range nums {
		j := t.byNum[n]
		fmt.Fprintf(&b, "[%d] (%d) %s: %s\n", j.Num(), j.GroupID(), j.State(), j.CommandLine())
		for _, p := range j.Processes() {
			fmt.Fprintf(&b, "    %d %s %s\n", p.PID(), p.State(), p.CommandLine())
		}
	}
	return b.String()
}

// DrainDone returns the "Done" announcement lines queued since the
// last call, for a background job reclaimed by Synchronize, and
// clears the queue. The REPL calls this right before showing the next
// prompt, mirroring the way an interactive shell reports background
// completion asynchronously rather than only on an explicit jobs
// call.
func (t *Table) DrainDone() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.done) == 0 {
		return nil
	}
	out := t.done
	t.done = nil
	return out
}
