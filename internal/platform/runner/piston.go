package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/javuy-backend/internal/platform/httpx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

const (
	DefaultPistonURL     = "https://emkc.org/api/v2/piston/execute"
	DefaultPistonVersion = "15.0.2"
)

type PistonConfig struct {
	URL        string
	Language   string
	Version    string
	Timeout    time.Duration
	MaxRetries int
}

type pistonRunner struct {
	log  *logger.Logger
	cfg  PistonConfig
	http *http.Client
}

func NewPistonRunner(log *logger.Logger, cfg PistonConfig, client *http.Client) Runner {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultPistonURL
	}
	if cfg.Language == "" {
		cfg.Language = "java"
	}
	if cfg.Version == "" {
		cfg.Version = DefaultPistonVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &pistonRunner{
		log:  log.With("runner", "PistonRunner"),
		cfg:  cfg,
		http: client,
	}
}

func (p *pistonRunner) Name() string { return ModePiston }

type pistonRequest struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Files    []File `json:"files"`
	Stdin    string `json:"stdin,omitempty"`
}

type pistonStage struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Output string  `json:"output"`
	Code   *int    `json:"code"`
	Signal *string `json:"signal"`
}

type pistonResponse struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Compile  *pistonStage `json:"compile"`
	Run      *pistonStage `json:"run"`
	Message  string       `json:"message"`
}

func (p *pistonRunner) Run(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(pistonRequest{
		Language: p.cfg.Language,
		Version:  p.cfg.Version,
		Files:    req.Files,
		Stdin:    req.Stdin,
	})
	if err != nil {
		return nil, fmt.Errorf("encode piston request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		resp, err := p.do(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == p.cfg.MaxRetries || !httpx.IsRetryableError(err) {
			break
		}
		wait := httpx.JitterSleep(time.Duration(attempt+1) * 500 * time.Millisecond)
		var ra *retryAfterError
		if errors.As(err, &ra) && ra.after > 0 {
			wait = ra.after
		}
		p.log.Warn("Piston request failed; retrying", "attempt", attempt+1, "wait", wait.String(), "error", err)
		if err := httpx.Sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrTransport, lastErr)
}

type retryAfterError struct {
	*httpx.StatusError
	after time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.StatusError }

func (p *pistonRunner) do(ctx context.Context, body []byte) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4*MaxOutputBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &httpx.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		return nil, &retryAfterError{StatusError: se, after: httpx.RetryAfterDuration(resp, 0, 10*time.Second)}
	}

	var pr pistonResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("decode piston response: %w", err)
	}
	if pr.Run == nil {
		if pr.Compile != nil && pr.Compile.Code != nil && *pr.Compile.Code != 0 {
			return &Result{
				Error:    truncate(firstNonEmpty(pr.Compile.Stderr, pr.Compile.Output), MaxOutputBytes),
				ExitCode: *pr.Compile.Code,
			}, nil
		}
		msg := strings.TrimSpace(pr.Message)
		if msg == "" {
			msg = "response has no run stage"
		}
		return nil, fmt.Errorf("piston: %s", msg)
	}

	res := &Result{Output: truncate(pr.Run.Stdout, MaxOutputBytes)}
	compileErr := ""
	if pr.Compile != nil && pr.Compile.Code != nil && *pr.Compile.Code != 0 {
		compileErr = pr.Compile.Stderr
	}
	res.Error = truncate(joinNonEmpty(compileErr, pr.Run.Stderr), MaxOutputBytes)
	if pr.Run.Code != nil {
		res.ExitCode = *pr.Run.Code
	}
	if pr.Run.Signal != nil && *pr.Run.Signal == "SIGKILL" {
		res.TimedOut = true
	}
	return res, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
