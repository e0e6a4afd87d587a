package app

import (
	"context"
	"fmt"
	"strings"

	redisclient "github.com/yungbote/javuy-backend/internal/clients/redis"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/platform/objectstore"
	"github.com/yungbote/javuy-backend/internal/platform/runner"
)

type Clients struct {
	Bucket      objectstore.BucketService
	Runner      runner.Runner
	Leaderboard redisclient.Leaderboard
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	mode, err := objectstore.ParseMode(cfg.Storage.Mode)
	if err != nil {
		return Clients{}, err
	}
	bucket, err := objectstore.New(ctx, log, objectstore.Config{
		Mode:            mode,
		LocalDir:        cfg.Storage.UploadDir,
		LocalURLPrefix:  "/uploads",
		Bucket:          cfg.Storage.Bucket,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		EmulatorHost:    cfg.Storage.EmulatorHost,
		CredentialsJSON: cfg.Storage.CredentialsJSON,
		CredentialsFile: cfg.Storage.CredentialsFile,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init object storage: %w", err)
	}

	r, err := newRunner(log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// Redis is optional; without it the leaderboard reads the database.
	var board redisclient.Leaderboard
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		board, err = redisclient.NewLeaderboard(log, redisclient.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis leaderboard: %w", err)
		}
	}

	return Clients{
		Bucket:      bucket,
		Runner:      r,
		Leaderboard: board,
	}, nil
}

func newRunner(log *logger.Logger, cfg Config) (runner.Runner, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Runner.Mode)) {
	case "", runner.ModePiston:
		return runner.NewPistonRunner(log, runner.PistonConfig{
			URL:        cfg.Runner.PistonURL,
			Version:    cfg.Runner.PistonVersion,
			Timeout:    cfg.Runner.Timeout,
			MaxRetries: cfg.Runner.PistonRetries,
		}, nil), nil
	case runner.ModeDocker:
		r, err := runner.NewDockerRunner(log, runner.DockerConfig{
			Image:     cfg.Runner.DockerImage,
			Timeout:   cfg.Runner.Timeout,
			MemoryMB:  cfg.Runner.MemoryMB,
			NanoCPUs:  cfg.Runner.NanoCPUs,
			PidsLimit: cfg.Runner.PidsLimit,
			TempRoot:  cfg.Runner.TempRoot,
			HostRoot:  cfg.Runner.HostRoot,
		})
		if err != nil {
			return nil, fmt.Errorf("init docker runner: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown RUNNER_MODE %q (want piston or docker)", cfg.Runner.Mode)
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Leaderboard != nil {
		_ = c.Leaderboard.Close()
	}
}
