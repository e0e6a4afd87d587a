package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ModePiston = "piston"
	ModeDocker = "docker"

	MaxFiles       = 20
	MaxSourceBytes = 256 << 10
	MaxOutputBytes = 64 << 10
)

// ErrTransport means the runner could not be reached or answered garbage. It is
// distinct from the program failing to compile or run.
var ErrTransport = errors.New("code runner transport failure")

type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type Request struct {
	Files []File
	Stdin string
}

type Result struct {
	Output   string `json:"output"`
	Error    string `json:"error"`
	ExitCode int    `json:"-"`
	TimedOut bool   `json:"-"`
}

// Runner compiles and runs a Java program made of the given files. The entry
// point is the class Main.
type Runner interface {
	Run(ctx context.Context, req Request) (*Result, error)
	Name() string
}

type LimitError struct {
	Reason string
}

func (e *LimitError) Error() string { return e.Reason }

// ValidateFiles enforces file count, total size and plain file names.
func ValidateFiles(files []File) error {
	if len(files) == 0 {
		return &LimitError{Reason: "No code or files provided"}
	}
	if len(files) > MaxFiles {
		return &LimitError{Reason: fmt.Sprintf("too many files (max %d)", MaxFiles)}
	}
	total := 0
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if err := validateName(f.Name); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return &LimitError{Reason: fmt.Sprintf("duplicate file name %q", f.Name)}
		}
		seen[f.Name] = struct{}{}
		total += len(f.Content)
	}
	if total > MaxSourceBytes {
		return &LimitError{Reason: fmt.Sprintf("source too large (max %d KiB)", MaxSourceBytes>>10)}
	}
	return nil
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &LimitError{Reason: "file name is required"}
	case name != strings.TrimSpace(name):
		return &LimitError{Reason: fmt.Sprintf("invalid file name %q", name)}
	case strings.ContainsAny(name, `/\`+"\x00"), name == ".", name == "..", strings.HasPrefix(name, "."):
		return &LimitError{Reason: fmt.Sprintf("invalid file name %q", name)}
	case len(name) > 128:
		return &LimitError{Reason: "file name too long"}
	}
	return nil
}

// truncate cuts s to at most max bytes and marks the cut.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "\n... output truncated"
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
