package parser

import (
	"bufio"
	"strings"
	"testing"
)

func TestParseSimpleCommand(t *testing.T) {
	pipelines, err := Parse([]byte("ls -la /tmp"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(pipelines) != 1 {
		t.Fatalf("len(pipelines) = %d, want 1", len(pipelines))
	}
	p := pipelines[0]
	if len(p.Commands) != 1 {
		t.Fatalf("len(Commands) = %d, want 1", len(p.Commands))
	}
	want := []string{"ls", "-la", "/tmp"}
	got := p.Commands[0].Argv()
	if len(got) != len(want) {
		t.Fatalf("Argv() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Argv()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParsePipeline(t *testing.T) {
	pipelines, err := Parse([]byte("cat file.txt | grep foo | wc -l"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(pipelines) != 1 {
		t.Fatalf("len(pipelines) = %d, want 1", len(pipelines))
	}
	if len(pipelines[0].Commands) != 3 {
		t.Fatalf("len(Commands) = %d, want 3", len(pipelines[0].Commands))
	}
	if pipelines[0].Commands[1].Command != "grep" {
		t.Errorf("Commands[1].Command = %q, want grep", pipelines[0].Commands[1].Command)
	}
}

func TestParseRedirections(t *testing.T) {
	pipelines, err := Parse([]byte("sort < in.txt >> out.txt"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	p := pipelines[0]
	if p.Input != "in.txt" {
		t.Errorf("Input = %q, want in.txt", p.Input)
	}
	if p.Output != "out.txt" || !p.Append {
		t.Errorf("Output = %q, Append = %v, want out.txt, true", p.Output, p.Append)
	}
}

func TestParseBackgroundAndSemicolon(t *testing.T) {
	pipelines, err := Parse([]byte("sleep 5 & echo done"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(pipelines) != 2 {
		t.Fatalf("len(pipelines) = %d, want 2", len(pipelines))
	}
	if !pipelines[0].Background {
		t.Error("first pipeline Background = false, want true")
	}
	if pipelines[1].Background {
		t.Error("second pipeline Background = true, want false")
	}

	pipelines, err = Parse([]byte("echo one; echo two"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(pipelines) != 2 {
		t.Fatalf("len(pipelines) = %d, want 2", len(pipelines))
	}
}

func TestParseQuoting(t *testing.T) {
	pipelines, err := Parse([]byte(`echo "hello world" 'it''s'`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	tokens := pipelines[0].Commands[0].Tokens
	if len(tokens) != 2 {
		t.Fatalf("Tokens = %v, want 2 entries", tokens)
	}
	if tokens[0] != "hello world" {
		t.Errorf("Tokens[0] = %q, want %q", tokens[0], "hello world")
	}
	if tokens[1] != "it's" {
		t.Errorf("Tokens[1] = %q, want %q", tokens[1], "it's")
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	cases := []string{"| ls", "; ls", "ls |", "ls <", "ls >", "ls &"}
	for _, c := range cases[:len(cases)-1] { // "ls &" is valid (trailing background)
		if _, err := Parse([]byte(c)); err == nil {
			t.Errorf("Parse(%q) returned no error, want a syntax error", c)
		}
	}
}

func TestReadLineContinuation(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader("echo \\\nhello\n"))
	line := Read(sc)
	if string(line) != "echo hello" {
		t.Errorf("Read() = %q, want %q", string(line), "echo hello")
	}
}

func TestReadQuoteContinuation(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader("echo \"hello\nworld\"\n"))
	line := Read(sc)
	if string(line) != "echo \"helloworld\"" {
		t.Errorf("Read() = %q, want %q", string(line), "echo \"helloworld\"")
	}
}

func TestReadEOF(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader(""))
	if line := Read(sc); line != nil {
		t.Errorf("Read() on empty input = %q, want nil", line)
	}
}
