package reaper

import (
	"os"
	"runtime"
	"testing"
	"time"

	"stsh/internal/job"
	"stsh/internal/jobtable"
	"stsh/internal/process"
	"stsh/internal/signalset"
	"stsh/internal/terminal"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestDrainReclaimsTerminatedJob(t *testing.T) {
	requireUnix(t)

	table := jobtable.New(os.Getpid())
	term := terminal.New(0, os.Getpid())
	r := New(table, term, nil)

	j := table.AddJob(job.Background)

	cmd := []string{"/bin/true"}
	proc, err := os.StartProcess(cmd[0], cmd, &os.ProcAttr{Files: []*os.File{os.Stdin, os.Stdout, os.Stderr}})
	if err != nil {
		t.Skipf("could not start /bin/true: %v", err)
	}
	p := process.New(proc.Pid, cmd)
	j.AddProcess(p)
	table.RegisterProcess(j, proc.Pid)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && table.ContainsJob(j.Num()) {
		r.Drain()
		time.Sleep(10 * time.Millisecond)
	}

	if table.ContainsJob(j.Num()) {
		t.Fatal("Drain never reclaimed a job whose only process exited")
	}
}

func TestInstallIgnoresTTYSignals(t *testing.T) {
	requireUnix(t)

	table := jobtable.New(os.Getpid())
	term := terminal.New(0, os.Getpid())
	r := New(table, term, nil)
	facility := signalset.New()

	r.Install(facility)
}
