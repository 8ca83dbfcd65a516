// Package job holds the ordered group of processes launched by a
// single pipeline, tracked under one job number and process group.
package job

import "stsh/internal/process"

// State is the job-level state visible to the REPL and the jobs
// listing. A third, internal "done" condition (every process
// Terminated) is represented by the job simply being absent from the
// table — see internal/jobtable.Synchronize.
type State int

const (
	// Foreground jobs own the controlling terminal.
	Foreground State = iota
	// Background jobs run without terminal ownership.
	Background
)

func (s State) String() string {
	if s == Foreground {
		return "Foreground"
	}
	return "Background"
}

// Job is an ordered sequence of processes sharing one process group,
// tracked under a stable job number.
type Job struct {
	num       int
	pgid      int
	state     State
	processes []*process.Process
}

// New constructs an empty job. pgid is fixed to 0 until the first
// process is added, then stays fixed at that process's pid.
func New(num int, initial State) *Job {
	return &Job{num: num, state: initial}
}

// Num returns the 1-based, stable job number.
func (j *Job) Num() int { return j.num }

// GroupID returns the process-group id, or 0 if no process has been
// added yet.
func (j *Job) GroupID() int { return j.pgid }

// State returns Foreground or Background.
func (j *Job) State() State { return j.state }

// SetState transitions the job between Foreground and Background.
func (j *Job) SetState(s State) { j.state = s }

// Processes returns the members in pipeline order. Callers must not
// mutate the returned slice's backing array directly; use AddProcess.
func (j *Job) Processes() []*process.Process { return j.processes }

// AddProcess appends a process to the job in pipeline order. On the
// first insertion it fixes the job's pgid to that process's pid: the
// pgid always equals the pid of the first child forked for this job.
func (j *Job) AddProcess(p *process.Process) {
	if len(j.processes) == 0 {
		j.pgid = p.PID()
	}
	j.processes = append(j.processes, p)
}

// ContainsProcess reports whether pid belongs to this job.
func (j *Job) ContainsProcess(pid int) bool {
	return j.GetProcess(pid) != nil
}

// GetProcess returns the member with the given pid, or nil.
func (j *Job) GetProcess(pid int) *process.Process {
	for _, p := range j.processes {
		if p.PID() == pid {
			return p
		}
	}
	return nil
}

// AllTerminated reports whether every member has terminated, the
// condition under which jobtable.Synchronize reclaims the job.
func (j *Job) AllTerminated() bool {
	for _, p := range j.processes {
		if !p.Terminated() {
			return false
		}
	}
	return len(j.processes) > 0
}

// AllStopped reports whether every non-terminated member is stopped,
// one of the conditions under which a Foreground job is demoted to
// Background by Synchronize.
func (j *Job) AllStopped() bool {
	any := false
	for _, p := range j.processes {
		if p.Terminated() {
			continue
		}
		any = true
		if p.State() != process.Stopped {
			return false
		}
	}
	return any
}

// CommandLine renders the whole pipeline ("cmd1 | cmd2 | ...") for the
// jobs listing.
func (j *Job) CommandLine() string {
	line := ""
	for i, p := range j.processes {
		if i > 0 {
			line += " | "
		}
		line += p.CommandLine()
	}
	return line
}
