package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

type fakeEngine struct {
	missingImage bool
	pulled       bool
	removed      bool
	hang         bool
	exitCode     int64
	stdout       string
	stderr       string

	gotCfg   *container.Config
	gotHost  *container.HostConfig
	gotFiles map[string]string
}

func (f *fakeEngine) Create(ctx context.Context, cfg *container.Config, host *container.HostConfig) (string, error) {
	if f.missingImage && !f.pulled {
		return "", errImageMissing
	}
	f.gotCfg, f.gotHost = cfg, host
	f.gotFiles = map[string]string{}
	entries, _ := os.ReadDir(host.Mounts[0].Source)
	for _, e := range entries {
		b, _ := os.ReadFile(filepath.Join(host.Mounts[0].Source, e.Name()))
		f.gotFiles[e.Name()] = string(b)
	}
	return "c1", nil
}

func (f *fakeEngine) Pull(ctx context.Context, ref string) error {
	f.pulled = true
	return nil
}

func (f *fakeEngine) Start(ctx context.Context, id string) error { return nil }

func (f *fakeEngine) Wait(ctx context.Context, id string) (int64, error) {
	if f.hang {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return f.exitCode, nil
}

func (f *fakeEngine) Logs(ctx context.Context, id string) (io.ReadCloser, error) {
	var buf bytes.Buffer
	if f.stdout != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(f.stdout))
	}
	if f.stderr != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(f.stderr))
	}
	return io.NopCloser(&buf), nil
}

func (f *fakeEngine) Remove(ctx context.Context, id string) error {
	f.removed = true
	return nil
}

func TestDockerRunnerRun(t *testing.T) {
	eng := &fakeEngine{stdout: "Hello\n", stderr: "warn\n", exitCode: 0}
	r, err := newDockerRunner(testLogger(t), DockerConfig{TempRoot: t.TempDir()}, eng)
	if err != nil {
		t.Fatalf("newDockerRunner: %v", err)
	}

	res, err := r.Run(context.Background(), Request{Files: []File{{Name: "Main.java", Content: "class Main {}\r\n"}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Output != "Hello\n" || res.Error != "warn\n" || res.TimedOut {
		t.Fatalf("unexpected result: %+v", res)
	}
	if eng.gotFiles["Main.java"] != "class Main {}\n" {
		t.Fatalf("workspace content: %q", eng.gotFiles["Main.java"])
	}
	if !eng.removed {
		t.Fatalf("container was not removed")
	}
	if eng.gotHost.NetworkMode != "none" || !eng.gotHost.ReadonlyRootfs || !eng.gotHost.Mounts[0].ReadOnly {
		t.Fatalf("sandbox not locked down: %+v", eng.gotHost)
	}
	if eng.gotHost.Resources.Memory != 256<<20 || eng.gotHost.Resources.PidsLimit == nil || *eng.gotHost.Resources.PidsLimit != 64 {
		t.Fatalf("unexpected resources: %+v", eng.gotHost.Resources)
	}
	if !eng.gotCfg.NetworkDisabled || eng.gotCfg.Image != DefaultDockerImage {
		t.Fatalf("unexpected container config: %+v", eng.gotCfg)
	}
}

func TestDockerRunnerPullsMissingImage(t *testing.T) {
	eng := &fakeEngine{missingImage: true, stdout: "ok"}
	r, err := newDockerRunner(testLogger(t), DockerConfig{TempRoot: t.TempDir(), Image: "custom:jdk"}, eng)
	if err != nil {
		t.Fatalf("newDockerRunner: %v", err)
	}
	res, err := r.Run(context.Background(), Request{Files: []File{{Name: "Main.java"}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !eng.pulled || res.Output != "ok" || eng.gotCfg.Image != "custom:jdk" {
		t.Fatalf("expected pull and run: pulled=%v res=%+v", eng.pulled, res)
	}
}

func TestDockerRunnerTimeout(t *testing.T) {
	eng := &fakeEngine{hang: true, stdout: "partial"}
	r, err := newDockerRunner(testLogger(t), DockerConfig{TempRoot: t.TempDir(), Timeout: 20 * time.Millisecond}, eng)
	if err != nil {
		t.Fatalf("newDockerRunner: %v", err)
	}
	res, err := r.Run(context.Background(), Request{Files: []File{{Name: "Main.java"}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.TimedOut || !strings.Contains(res.Error, "Execution timed out after 20ms") || res.Output != "partial" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !eng.removed {
		t.Fatalf("container was not removed after timeout")
	}
}

func TestDockerRunnerCallerCancel(t *testing.T) {
	eng := &fakeEngine{hang: true}
	r, _ := newDockerRunner(testLogger(t), DockerConfig{TempRoot: t.TempDir(), Timeout: time.Minute}, eng)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := r.Run(ctx, Request{Files: []File{{Name: "Main.java"}}}); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport on caller cancel, got %v", err)
	}
}

func TestDockerRunnerHostPathMapping(t *testing.T) {
	r, _ := newDockerRunner(testLogger(t), DockerConfig{TempRoot: t.TempDir(), HostRoot: "/srv/runs"}, &fakeEngine{})
	if got := r.hostPathFor("/tmp/javuy-runs/run-123"); got != "/srv/runs/run-123" {
		t.Fatalf("hostPathFor: %q", got)
	}
}
