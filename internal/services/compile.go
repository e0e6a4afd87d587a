package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/platform/runner"
)

const (
	DefaultSourceFile = "Main.java"

	compilerUnavailable = "Failed to communicate with compiler service."
)

type CompileRequest struct {
	Code  string        `json:"code"`
	Files []runner.File `json:"files"`
	Stdin string        `json:"stdin"`
}

type CompileResult struct {
	Output   string `json:"output"`
	Error    string `json:"error"`
	TimedOut bool   `json:"timedOut,omitempty"`
}

type CompileService interface {
	Compile(ctx context.Context, req CompileRequest) (*CompileResult, error)
	RunnerName() string
}

type compileService struct {
	log    *logger.Logger
	runner runner.Runner
}

func NewCompileService(log *logger.Logger, r runner.Runner) CompileService {
	return &compileService{
		log:    log.With("service", "CompileService", "runner", r.Name()),
		runner: r,
	}
}

func (cs *compileService) RunnerName() string { return cs.runner.Name() }

// Compile runs files when given, else code as a single Main.java. Runner
// failures come back as a result carrying a generic error, not as an error.
func (cs *compileService) Compile(ctx context.Context, req CompileRequest) (*CompileResult, error) {
	files := req.Files
	if len(files) == 0 && req.Code != "" {
		files = []runner.File{{Name: DefaultSourceFile, Content: req.Code}}
	}
	if err := runner.ValidateFiles(files); err != nil {
		var le *runner.LimitError
		if errors.As(err, &le) {
			code := "invalid_source"
			if len(files) == 0 {
				code = "no_code"
			}
			return nil, apierr.New(http.StatusBadRequest, code, err)
		}
		return nil, err
	}

	res, err := cs.runner.Run(ctx, runner.Request{Files: files, Stdin: req.Stdin})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		cs.log.Error("Compiler call failed", "files", len(files), "error", err)
		return &CompileResult{Output: "", Error: compilerUnavailable}, nil
	}
	return &CompileResult{Output: res.Output, Error: res.Error, TimedOut: res.TimedOut}, nil
}
