// Package readline renders the prompt and reads one logical input
// line at a time, with in-memory (and optionally file-persisted)
// history.
//
// Grounded on ramen-badr-Shell's prompt.Out (user@host:cwd prompt) for
// rendering, and on yanshuy-shell-go's use of golang.org/x/term for
// detecting whether stdin is a real terminal — piped/scripted input
// must work without raw-mode line editing.
package readline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"golang.org/x/term"

	"stsh/internal/parser"
)

// Reader owns the input scanner, the prompt's cached identity
// strings, and the in-memory history.
type Reader struct {
	scanner  *bufio.Scanner
	out      io.Writer
	userName string
	hostName string
	homeDir  string
	history  []string
	histFile string
	isTTY    bool
}

// New builds a Reader over in/out. histFile, if non-empty, is loaded
// for initial history and appended to as lines are read.
func New(in io.Reader, out io.Writer, histFile string) *Reader {
	r := &Reader{
		scanner:  bufio.NewScanner(in),
		out:      out,
		userName: "username",
		hostName: "hostname",
		histFile: histFile,
	}

	if f, ok := in.(*os.File); ok {
		r.isTTY = term.IsTerminal(int(f.Fd()))
	}

	if u, err := user.Current(); err == nil {
		r.userName = u.Username
	}
	if h, err := os.Hostname(); err == nil {
		r.hostName = h
	}
	r.homeDir, _ = os.LookupEnv("HOME")

	if histFile != "" {
		if data, err := os.ReadFile(histFile); err == nil {
			for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
				if line != "" {
					r.history = append(r.history, line)
				}
			}
		}
	}

	return r
}

// Prompt renders "user@host:cwd$ ", replacing $HOME with "~" the way
// ramen-badr-Shell's prompt.Out does.
func (r *Reader) Prompt() string {
	cwd := "~"
	if curCwd, err := os.Getwd(); err == nil {
		cwd = curCwd
		if r.homeDir != "" && strings.HasPrefix(curCwd, r.homeDir) {
			cwd = strings.Replace(curCwd, r.homeDir, "~", 1)
		}
	}
	return r.userName + "@" + r.hostName + ":" + cwd + "$ "
}

// ShowPrompt writes the prompt to the Reader's output.
func (r *Reader) ShowPrompt() {
	fmt.Fprint(r.out, r.Prompt())
}

// ReadLine prompts (if stdin is a terminal) and reads one logical
// line, honoring the quote/backslash continuation parser.Read
// implements. ok is false at EOF.
func (r *Reader) ReadLine() (line []byte, ok bool) {
	if r.isTTY {
		r.ShowPrompt()
	}

	line = parser.Read(r.scanner)
	if line == nil {
		return nil, false
	}

	if trimmed := strings.TrimSpace(string(line)); trimmed != "" {
		r.history = append(r.history, trimmed)
		r.appendHistFile(trimmed)
	}

	return line, true
}

func (r *Reader) appendHistFile(line string) {
	if r.histFile == "" {
		return
	}
	f, err := os.OpenFile(r.histFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintln(f, line)
}

// History returns the commands read so far, oldest first.
func (r *Reader) History() []string { return r.history }
