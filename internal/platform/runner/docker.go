package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

const (
	DefaultDockerImage = "eclipse-temurin:17-jdk"
	workspaceMount     = "/workspace"
	javaCommand        = "javac -d /tmp/classes *.java && java -Xmx128m -cp /tmp/classes Main"
)

type DockerConfig struct {
	Image     string
	Timeout   time.Duration
	MemoryMB  int64
	NanoCPUs  int64
	PidsLimit int64
	// TempRoot is where workspaces are written on this machine.
	TempRoot string
	// HostRoot is TempRoot as the docker daemon sees it, when this process
	// itself runs in a container. Empty means the same path.
	HostRoot string
}

// engine is the slice of the docker API the sandbox needs.
type engine interface {
	Create(ctx context.Context, cfg *container.Config, host *container.HostConfig) (string, error)
	Pull(ctx context.Context, ref string) error
	Start(ctx context.Context, id string) error
	Wait(ctx context.Context, id string) (int64, error)
	Logs(ctx context.Context, id string) (io.ReadCloser, error)
	Remove(ctx context.Context, id string) error
}

var errImageMissing = errors.New("image not found")

type dockerRunner struct {
	log    *logger.Logger
	cfg    DockerConfig
	engine engine
}

func NewDockerRunner(log *logger.Logger, cfg DockerConfig) (Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return newDockerRunner(log, cfg, &dockerEngine{cli: cli})
}

func newDockerRunner(log *logger.Logger, cfg DockerConfig, eng engine) (*dockerRunner, error) {
	if cfg.Image == "" {
		cfg.Image = DefaultDockerImage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MemoryMB <= 0 {
		cfg.MemoryMB = 256
	}
	if cfg.NanoCPUs <= 0 {
		cfg.NanoCPUs = 1_000_000_000
	}
	if cfg.PidsLimit <= 0 {
		cfg.PidsLimit = 64
	}
	if cfg.TempRoot == "" {
		cfg.TempRoot = filepath.Join(os.TempDir(), "javuy-runs")
	}
	if err := os.MkdirAll(cfg.TempRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create runner temp root %s: %w", cfg.TempRoot, err)
	}
	return &dockerRunner{
		log:    log.With("runner", "DockerRunner"),
		cfg:    cfg,
		engine: eng,
	}, nil
}

func (d *dockerRunner) Name() string { return ModeDocker }

func (d *dockerRunner) Run(ctx context.Context, req Request) (*Result, error) {
	execDir, err := d.prepareWorkspace(req.Files)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(execDir)

	cfg, host := d.containerConfig(d.hostPathFor(execDir))

	id, err := d.engine.Create(ctx, cfg, host)
	if errors.Is(err, errImageMissing) {
		d.log.Info("Runner image missing; pulling", "image", d.cfg.Image)
		if pullErr := d.engine.Pull(ctx, d.cfg.Image); pullErr != nil {
			return nil, fmt.Errorf("%w: pull image %s: %w", ErrTransport, d.cfg.Image, pullErr)
		}
		id, err = d.engine.Create(ctx, cfg, host)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create container: %w", ErrTransport, err)
	}
	defer func() {
		if err := d.engine.Remove(context.Background(), id); err != nil {
			d.log.Warn("Failed to remove runner container", "container_id", id, "error", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	if err := d.engine.Start(runCtx, id); err != nil {
		return nil, fmt.Errorf("%w: start container: %w", ErrTransport, err)
	}

	res := &Result{}
	code, waitErr := d.engine.Wait(runCtx, id)
	switch {
	case waitErr == nil:
		res.ExitCode = int(code)
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.TimedOut = true
		res.ExitCode = -1
	default:
		return nil, fmt.Errorf("%w: wait container: %w", ErrTransport, waitErr)
	}

	// Logs are read after exit; the run context may already be expired.
	logCtx, logCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer logCancel()
	stdout, stderr, err := d.collectLogs(logCtx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: read logs: %w", ErrTransport, err)
	}
	res.Output = stdout
	res.Error = stderr
	if res.TimedOut {
		res.Error = joinNonEmpty(res.Error, fmt.Sprintf("Execution timed out after %s", d.cfg.Timeout))
	}
	return res, nil
}

func (d *dockerRunner) prepareWorkspace(files []File) (string, error) {
	execDir, err := os.MkdirTemp(d.cfg.TempRoot, "run-")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	if err := os.Chmod(execDir, 0o755); err != nil {
		_ = os.RemoveAll(execDir)
		return "", err
	}
	for _, f := range files {
		if err := validateName(f.Name); err != nil {
			_ = os.RemoveAll(execDir)
			return "", err
		}
		clean := strings.ReplaceAll(f.Content, "\r\n", "\n")
		if err := os.WriteFile(filepath.Join(execDir, f.Name), []byte(clean), 0o644); err != nil {
			_ = os.RemoveAll(execDir)
			return "", fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return execDir, nil
}

func (d *dockerRunner) hostPathFor(execDir string) string {
	if d.cfg.HostRoot == "" {
		return execDir
	}
	return filepath.Join(d.cfg.HostRoot, filepath.Base(execDir))
}

func (d *dockerRunner) containerConfig(hostDir string) (*container.Config, *container.HostConfig) {
	pids := d.cfg.PidsLimit
	cfg := &container.Config{
		Image:           d.cfg.Image,
		Cmd:             []string{"-c", javaCommand},
		Entrypoint:      []string{"/bin/sh"},
		WorkingDir:      workspaceMount,
		User:            "65534:65534",
		NetworkDisabled: true,
		Env:             []string{"JAVA_TOOL_OPTIONS=-Djava.io.tmpdir=/tmp"},
	}
	host := &container.HostConfig{
		NetworkMode:    "none",
		ReadonlyRootfs: true,
		AutoRemove:     false,
		CapDrop:        []string{"ALL"},
		SecurityOpt:    []string{"no-new-privileges"},
		Tmpfs:          map[string]string{"/tmp": "rw,exec,size=64m"},
		Mounts: []mount.Mount{{
			Type:     mount.TypeBind,
			Source:   hostDir,
			Target:   workspaceMount,
			ReadOnly: true,
		}},
		Resources: container.Resources{
			Memory:     d.cfg.MemoryMB << 20,
			MemorySwap: d.cfg.MemoryMB << 20,
			NanoCPUs:   d.cfg.NanoCPUs,
			PidsLimit:  &pids,
		},
	}
	return cfg, host
}

func (d *dockerRunner) collectLogs(ctx context.Context, id string) (string, string, error) {
	rc, err := d.engine.Logs(ctx, id)
	if err != nil {
		return "", "", err
	}
	defer rc.Close()
	stdout := &cappedBuffer{max: MaxOutputBytes}
	stderr := &cappedBuffer{max: MaxOutputBytes}
	if _, err := stdcopy.StdCopy(stdout, stderr, rc); err != nil {
		return "", "", err
	}
	return stdout.String(), stderr.String(), nil
}

// cappedBuffer keeps the first max bytes and silently drops the rest.
type cappedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.max - b.buf.Len()
	if room <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n... output truncated"
	}
	return b.buf.String()
}

type dockerEngine struct {
	cli *client.Client
}

func (e *dockerEngine) Create(ctx context.Context, cfg *container.Config, host *container.HostConfig) (string, error) {
	resp, err := e.cli.ContainerCreate(ctx, cfg, host, nil, nil, "")
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", fmt.Errorf("%w: %w", errImageMissing, err)
		}
		return "", err
	}
	return resp.ID, nil
}

func (e *dockerEngine) Pull(ctx context.Context, ref string) error {
	rc, err := e.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return err
	}
	defer rc.Close()
	// The pull only completes once the progress stream is drained.
	_, err = io.Copy(io.Discard, rc)
	return err
}

func (e *dockerEngine) Start(ctx context.Context, id string) error {
	return e.cli.ContainerStart(ctx, id, container.StartOptions{})
}

func (e *dockerEngine) Wait(ctx context.Context, id string) (int64, error) {
	statusCh, errCh := e.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return 0, err
	case status := <-statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return status.StatusCode, errors.New(status.Error.Message)
		}
		return status.StatusCode, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (e *dockerEngine) Logs(ctx context.Context, id string) (io.ReadCloser, error) {
	return e.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
}

func (e *dockerEngine) Remove(ctx context.Context, id string) error {
	return e.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}
