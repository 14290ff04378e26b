package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	_, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	dbFlag := root.PersistentFlags().Lookup("db")
	if dbFlag == nil {
		t.Fatal("expected --db flag to exist")
	}
}

func TestInvalidFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand("--format", "xml", "version")
	if err == nil || !strings.Contains(err.Error(), "invalid --format") {
		t.Fatalf("err = %v, want invalid --format", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != Version {
		t.Errorf("output = %q, want %q", out, Version)
	}
}

func TestHint(t *testing.T) {
	setupBackend(t)

	_, err := executeCommand("comment", "add", "abc123", "hi")
	if got := Hint(err); got != "Run 'dm login' to authenticate." {
		t.Errorf("hint = %q for %v", got, err)
	}

	_, err = executeCommand("post", "show", "missing")
	if got := Hint(err); got != "" {
		t.Errorf("hint = %q for not found, want none", got)
	}
	if Hint(fmt.Errorf("plain")) != "" {
		t.Error("plain errors have no hint")
	}
}

func TestArgValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name string
		args []string
	}{
		{"post show without id", []string{"post", "show"}},
		{"post delete extra arg", []string{"post", "delete", "a", "b"}},
		{"comment add without text", []string{"comment", "add", "abc123"}},
		{"comment delete without comment id", []string{"comment", "delete", "abc123"}},
		{"profile show with arg", []string{"profile", "show", "x"}},
		{"post edit without flags", []string{"post", "edit", "abc123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
