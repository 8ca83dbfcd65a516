package job

import (
	"testing"

	"stsh/internal/process"
)

func TestAddProcessFixesGroupID(t *testing.T) {
	j := New(1, Foreground)
	if j.GroupID() != 0 {
		t.Errorf("GroupID() on empty job = %d, want 0", j.GroupID())
	}

	j.AddProcess(process.New(100, []string{"cat"}))
	if j.GroupID() != 100 {
		t.Errorf("GroupID() after first AddProcess = %d, want 100", j.GroupID())
	}

	j.AddProcess(process.New(101, []string{"grep", "x"}))
	if j.GroupID() != 100 {
		t.Errorf("GroupID() after second AddProcess = %d, want unchanged 100", j.GroupID())
	}
	if len(j.Processes()) != 2 {
		t.Errorf("len(Processes()) = %d, want 2", len(j.Processes()))
	}
}

func TestContainsAndGetProcess(t *testing.T) {
	j := New(1, Foreground)
	j.AddProcess(process.New(10, []string{"a"}))

	if !j.ContainsProcess(10) {
		t.Error("ContainsProcess(10) = false, want true")
	}
	if j.ContainsProcess(11) {
		t.Error("ContainsProcess(11) = true, want false")
	}
	if p := j.GetProcess(10); p == nil || p.PID() != 10 {
		t.Errorf("GetProcess(10) = %v, want pid 10", p)
	}
	if p := j.GetProcess(99); p != nil {
		t.Errorf("GetProcess(99) = %v, want nil", p)
	}
}

func TestAllTerminated(t *testing.T) {
	j := New(1, Foreground)
	if j.AllTerminated() {
		t.Error("AllTerminated() on empty job = true, want false")
	}

	p1 := process.New(10, []string{"a"})
	p2 := process.New(11, []string{"b"})
	j.AddProcess(p1)
	j.AddProcess(p2)

	if j.AllTerminated() {
		t.Error("AllTerminated() = true while both running")
	}
	p1.SetState(process.Terminated)
	if j.AllTerminated() {
		t.Error("AllTerminated() = true with only one terminated")
	}
	p2.SetState(process.Terminated)
	if !j.AllTerminated() {
		t.Error("AllTerminated() = false with both terminated")
	}
}

func TestAllStopped(t *testing.T) {
	j := New(1, Foreground)
	p1 := process.New(10, []string{"a"})
	p2 := process.New(11, []string{"b"})
	j.AddProcess(p1)
	j.AddProcess(p2)

	if j.AllStopped() {
		t.Error("AllStopped() = true while both running")
	}

	p1.SetState(process.Stopped)
	if j.AllStopped() {
		t.Error("AllStopped() = true with only one stopped")
	}

	p2.SetState(process.Stopped)
	if !j.AllStopped() {
		t.Error("AllStopped() = false with both stopped")
	}

	// A terminated member should not prevent AllStopped from holding
	// over the remaining live members.
	p2.SetState(process.Terminated)
	if !j.AllStopped() {
		t.Error("AllStopped() = false with one Stopped and one Terminated")
	}
}

func TestCommandLine(t *testing.T) {
	j := New(1, Background)
	j.AddProcess(process.New(1, []string{"cat", "f"}))
	j.AddProcess(process.New(2, []string{"grep", "x"}))

	if got, want := j.CommandLine(), "cat f | grep x"; got != want {
		t.Errorf("CommandLine() = %q, want %q", got, want)
	}
}

func TestStateString(t *testing.T) {
	if Foreground.String() != "Foreground" {
		t.Errorf("Foreground.String() = %q, want Foreground", Foreground.String())
	}
	if Background.String() != "Background" {
		t.Errorf("Background.String() = %q, want Background", Background.String())
	}
}
