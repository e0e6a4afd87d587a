package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type Entry struct {
	Username string
	XP       int
	Avatar   string
}

// Leaderboard keeps learners in a sorted set. Scores are negated XP so an
// ascending range yields XP descending with ties broken by username.
type Leaderboard interface {
	SetScore(ctx context.Context, e Entry) error
	Remove(ctx context.Context, usernames ...string) error
	Top(ctx context.Context, limit int) ([]Entry, error)
	Rank(ctx context.Context, username string) (int, bool, error)
	Rebuild(ctx context.Context, entries []Entry) error
	Close() error
}

type leaderboard struct {
	log       *logger.Logger
	rdb       *goredis.Client
	scoresKey string
	avatarKey string
}

func NewLeaderboard(log *logger.Logger, opts Options) (Leaderboard, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(opts.KeyPrefix)
	if prefix == "" {
		prefix = "javuy"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &leaderboard{
		log:       log.With("client", "RedisLeaderboard"),
		rdb:       rdb,
		scoresKey: prefix + ":leaderboard",
		avatarKey: prefix + ":leaderboard:avatar",
	}, nil
}

func (l *leaderboard) SetScore(ctx context.Context, e Entry) error {
	if e.Username == "" {
		return fmt.Errorf("leaderboard entry needs a username")
	}
	_, err := l.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.ZAdd(ctx, l.scoresKey, goredis.Z{Score: scoreFor(e.XP), Member: e.Username})
		p.HSet(ctx, l.avatarKey, e.Username, e.Avatar)
		return nil
	})
	return err
}

func (l *leaderboard) Remove(ctx context.Context, usernames ...string) error {
	if len(usernames) == 0 {
		return nil
	}
	members := make([]interface{}, len(usernames))
	for i, u := range usernames {
		members[i] = u
	}
	_, err := l.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.ZRem(ctx, l.scoresKey, members...)
		p.HDel(ctx, l.avatarKey, usernames...)
		return nil
	})
	return err
}

func (l *leaderboard) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	zs, err := l.rdb.ZRangeWithScores(ctx, l.scoresKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard range: %w", err)
	}
	if len(zs) == 0 {
		return []Entry{}, nil
	}
	names := make([]string, 0, len(zs))
	for _, z := range zs {
		names = append(names, fmt.Sprint(z.Member))
	}
	avatars, err := l.rdb.HMGet(ctx, l.avatarKey, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard avatars: %w", err)
	}
	out := make([]Entry, 0, len(zs))
	for i, z := range zs {
		e := Entry{Username: names[i], XP: xpFor(z.Score)}
		if i < len(avatars) {
			if s, ok := avatars[i].(string); ok {
				e.Avatar = s
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// Rank is 1-based. ok is false when the user is not on the board.
func (l *leaderboard) Rank(ctx context.Context, username string) (int, bool, error) {
	r, err := l.rdb.ZRank(ctx, l.scoresKey, username).Result()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int(r) + 1, true, nil
}

func (l *leaderboard) Rebuild(ctx context.Context, entries []Entry) error {
	_, err := l.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, l.scoresKey, l.avatarKey)
		if len(entries) == 0 {
			return nil
		}
		zs := make([]goredis.Z, 0, len(entries))
		avatars := make(map[string]interface{}, len(entries))
		for _, e := range entries {
			zs = append(zs, goredis.Z{Score: scoreFor(e.XP), Member: e.Username})
			avatars[e.Username] = e.Avatar
		}
		p.ZAdd(ctx, l.scoresKey, zs...)
		p.HSet(ctx, l.avatarKey, avatars)
		return nil
	})
	if err != nil {
		return fmt.Errorf("leaderboard rebuild: %w", err)
	}
	l.log.Info("Leaderboard rebuilt", "entries", len(entries))
	return nil
}

func (l *leaderboard) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}

func scoreFor(xp int) float64 { return -float64(xp) }

func xpFor(score float64) int { return int(-score) }
