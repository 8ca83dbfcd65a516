// Package repl implements the read-parse-dispatch loop: read a line,
// parse it into pipelines, dispatch each to a builtin or the
// launcher, and report any error at a single catch site.
package repl

import (
	"errors"
	"fmt"
	"os"

	"stsh/internal/builtins"
	"stsh/internal/jobtable"
	"stsh/internal/launcher"
	"stsh/internal/parser"
	"stsh/internal/readline"
	"stsh/internal/shellerr"
)

// Loop ties the reader, builtins dispatcher, and launcher together.
type Loop struct {
	reader   *readline.Reader
	builtins *builtins.Builtins
	launcher *launcher.Launcher
	table    *jobtable.Table
	shellPID int
}

// New builds a Loop. shellPID is recorded once at startup so the
// "never return to the REPL in a child" guard can detect a child
// process that somehow reached this code path.
func New(reader *readline.Reader, b *builtins.Builtins, l *launcher.Launcher, table *jobtable.Table, shellPID int) *Loop {
	return &Loop{reader: reader, builtins: b, launcher: l, table: table, shellPID: shellPID}
}

// Run executes the loop until EOF or a quit/exit builtin. Returns the
// process exit status.
func (l *Loop) Run() int {
	for {
		for _, notice := range l.table.DrainDone() {
			fmt.Println(notice)
		}

		line, ok := l.reader.ReadLine()
		if !ok {
			fmt.Println("exit")
			return 0
		}
		if len(line) == 0 {
			continue
		}

		pipelines, err := parser.Parse(line)
		if err != nil {
			l.report(err)
			continue
		}

		for _, p := range pipelines {
			if err := l.dispatch(p); err != nil {
				if errors.Is(err, builtins.ErrQuit) {
					return 0
				}
				l.report(err)
			}
		}
	}
}

func (l *Loop) dispatch(p parser.Pipeline) error {
	if len(p.Commands) == 0 {
		return nil
	}
	name := p.Commands[0].Command
	if builtins.Names[name] {
		return l.builtins.Dispatch(p.Commands[0].Argv())
	}
	return l.launcher.Launch(p)
}

// report prints err to stderr and exits immediately if the reporting
// process is not the shell — guarding against an error thrown between
// fork and exec escaping into a child's copy of the REPL. With the
// launcher's use of syscall.ForkExec (an atomic fork+exec from the
// parent's point of view, see the pre-flight comment in
// internal/launcher's Launch) this
// can never actually happen, but the guard is kept as a cheap
// backstop in case that changes.
func (l *Loop) report(err error) {
	fmt.Fprintln(os.Stderr, err)
	if os.Getpid() != l.shellPID {
		os.Exit(0)
	}
	var se *shellerr.Error
	if errors.As(err, &se) && se.IsFatal() {
		os.Exit(1)
	}
}
