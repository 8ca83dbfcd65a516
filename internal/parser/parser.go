// Package parser turns a raw input line into an ordered sequence of
// Pipelines: each Pipeline has a non-empty ordered sequence of
// Commands, an optional input and output redirection path, and a
// background flag.
//
// Quote handling, escaping, and line continuation are loosely modeled
// on ramen-badr-Shell's QuotesHandle/Read, but the scanning itself is
// restructured around an incremental quote-state cursor (so a
// multi-line continuation only rescans what was just appended, not
// the whole buffer) and an explicit quoteKind state machine, and the
// token boundary set additionally treats tabs as field separators.
// Parse itself emits Pipeline values instead of a flat list of
// per-stage commands tagged with pipe-flag bits.
package parser

import (
	"bufio"
	"fmt"
	"strings"

	"stsh/internal/shellerr"
)

// Command is one pipeline stage.
type Command struct {
	Command string
	Tokens  []string
}

// Argv returns Command followed by Tokens, ready for exec.
func (c Command) Argv() []string {
	return append([]string{c.Command}, c.Tokens...)
}

// Pipeline is one or more commands joined by '|', plus the
// redirections and background flag that apply to the pipeline as a
// whole.
type Pipeline struct {
	Commands   []Command
	Input      string
	Output     string
	Append     bool
	Background bool
}

// quoteKind names which quote style, if any, the scanner is currently
// inside.
type quoteKind byte

const (
	noQuote     quoteKind = 0
	singleQuote quoteKind = '\''
	doubleQuote quoteKind = '"'
)

// escapes reports whether line[i] is a backslash that escapes the
// byte following it, given the scanner is currently inside quote:
// unquoted, a backslash always escapes; inside double quotes, only a
// backslash before another backslash or a closing quote does; inside
// single quotes, backslash has no special meaning at all.
func escapes(line []byte, i int, quote quoteKind) bool {
	if line[i] != '\\' {
		return false
	}
	if quote == noQuote {
		return true
	}
	return quote == doubleQuote && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\')
}

// tokenBoundary reports whether b ends a token when seen outside any
// quote.
func tokenBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '|', '&', '<', '>', ';':
		return true
	}
	return false
}

// Read accumulates one logical input line from s, honoring quote- and
// backslash-continuation the way an interactive shell must: an
// unterminated quote or a trailing backslash prompts for a
// continuation line instead of treating the newline as the end of the
// command. Returns nil at EOF with nothing pending.
//
// Quote state is carried across continuation lines rather than
// recomputed from the start of the buffer each time, so appending a
// continuation line only costs scanning the bytes just appended.
func Read(s *bufio.Scanner) []byte {
	var line []byte
	quote := noQuote
	scanned := 0

	for s.Scan() || line != nil {
		if line == nil {
			line = append([]byte{}, s.Bytes()...)
		} else {
			line = append(line, s.Bytes()...)
		}

		for ; scanned < len(line); scanned++ {
			b := line[scanned]
			switch {
			case escapes(line, scanned, quote):
				scanned++
			case (quoteKind(b) == singleQuote || quoteKind(b) == doubleQuote) && quote == noQuote:
				quote = quoteKind(b)
			case quoteKind(b) == quote:
				quote = noQuote
			}
		}
		// A trailing backslash at the chunk boundary may have been
		// counted as escaping a byte that doesn't exist yet; clamp back
		// to the (possibly shorter, after the trim below) line length.
		if scanned > len(line) {
			scanned = len(line)
		}

		if len(line) > 0 && line[len(line)-1] == '\\' && quote != singleQuote {
			line = line[:len(line)-1]
			if scanned > len(line) {
				scanned = len(line)
			}
			fmt.Print("> ")
			continue
		}

		if quote != noQuote {
			fmt.Print("> ")
			continue
		}

		break
	}

	return line
}

// trimSpaces advances id past any run of plain spaces or tabs.
func trimSpaces(line []byte, id int) int {
	for id < len(line) && (line[id] == ' ' || line[id] == '\t') {
		id++
	}
	return id
}

// quotesHandle consumes one token starting at id, stripping quotes and
// resolving the limited backslash-escapes the parser supports, and
// returns the decoded token plus the index just past it.
func quotesHandle(line []byte, id int) (string, int) {
	var res strings.Builder
	quote := noQuote

	for id < len(line) {
		if quote == noQuote && tokenBoundary(line[id]) {
			break
		}

		switch {
		case escapes(line, id, quote):
			id++
			if id >= len(line) {
				return res.String(), id
			}
			res.WriteByte(line[id])
			id++
			continue
		case (quoteKind(line[id]) == singleQuote || quoteKind(line[id]) == doubleQuote) && quote == noQuote:
			quote = quoteKind(line[id])
			id++
			continue
		case quoteKind(line[id]) == quote:
			quote = noQuote
			id++
			continue
		}

		res.WriteByte(line[id])
		id++
	}

	return res.String(), id
}

// Parse tokenizes line into one or more Pipelines, split on top-level
// ';'. Returns a ParseError on malformed input: a stray operator with
// no preceding command, a '|' with no following command, or a
// redirection with no following filename.
func Parse(line []byte) ([]Pipeline, error) {
	var pipelines []Pipeline
	var pl Pipeline
	var cur Command
	var haveCur bool
	var pendingPipe bool

	flush := func() {
		if haveCur {
			pl.Commands = append(pl.Commands, cur)
			cur = Command{}
			haveCur = false
		}
	}
	flushPipeline := func() {
		flush()
		if len(pl.Commands) > 0 {
			pipelines = append(pipelines, pl)
		}
		pl = Pipeline{}
	}

	for i := 0; i < len(line); i++ {
		i = trimSpaces(line, i)
		if i == len(line) {
			break
		}

		switch line[i] {
		case '&':
			if (!haveCur && len(pl.Commands) == 0) || pendingPipe {
				return nil, shellerr.Parsef("Syntax error: missing command before '&'")
			}
			pl.Background = true
			flushPipeline()
		case '|':
			if !haveCur {
				return nil, shellerr.Parsef("Syntax error: missing command before '|'")
			}
			flush()
			pendingPipe = true
		case '<':
			i = trimSpaces(line, i+1)
			if i == len(line) {
				return nil, shellerr.Parsef("Syntax error: missing input file name after '<'")
			}
			pl.Input, i = quotesHandle(line, i)
			i--
		case '>':
			appendFlag := false
			if i+1 < len(line) && line[i+1] == '>' {
				appendFlag = true
				i++
			}

			i = trimSpaces(line, i+1)
			if i == len(line) {
				return nil, shellerr.Parsef("Syntax error: missing output file name after '>'")
			}

			pl.Output, i = quotesHandle(line, i)
			pl.Append = appendFlag
			i--
		case ';':
			if (!haveCur && len(pl.Commands) == 0) || pendingPipe {
				return nil, shellerr.Parsef("Syntax error: missing command before ';'")
			}
			flushPipeline()
		default:
			var str string
			str, i = quotesHandle(line, i)
			i--
			if !haveCur {
				cur = Command{Command: str}
				haveCur = true
				pendingPipe = false
			} else {
				cur.Tokens = append(cur.Tokens, str)
			}
		}
	}

	if pendingPipe {
		return nil, shellerr.Parsef("Syntax error: missing command after '|'")
	}
	flushPipeline()

	return pipelines, nil
}
