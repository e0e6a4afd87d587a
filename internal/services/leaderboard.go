package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	redisclient "github.com/yungbote/javuy-backend/internal/clients/redis"
	"github.com/yungbote/javuy-backend/internal/data/repos"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Avatar   string `json:"avatar"`
}

type LeaderboardService interface {
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	Rank(ctx context.Context, u *types.User) (int, error)
	// Sync pushes the user's current XP and avatar to the cache. Failures are logged, not returned.
	Sync(ctx context.Context, u *types.User)
	Remove(ctx context.Context, usernames ...string)
	Rebuild(ctx context.Context) error
}

type leaderboardService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	cache    redisclient.Leaderboard
}

// NewLeaderboardService serves rankings from cache when it is non-nil and
// straight from the database otherwise.
func NewLeaderboardService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, cache redisclient.Leaderboard) LeaderboardService {
	return &leaderboardService{
		db:       db,
		log:      log.With("service", "LeaderboardService"),
		userRepo: userRepo,
		cache:    cache,
	}
}

func ClampLeaderboardLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	}
	return limit
}

func (s *leaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	limit = ClampLeaderboardLimit(limit)
	if s.cache != nil {
		entries, err := s.cache.Top(ctx, limit)
		if err == nil {
			out := make([]LeaderboardEntry, 0, len(entries))
			for i, e := range entries {
				out = append(out, LeaderboardEntry{Rank: i + 1, Username: e.Username, XP: e.XP, Avatar: e.Avatar})
			}
			return out, nil
		}
		s.log.Warn("Leaderboard cache read failed, using database", "error", err)
	}

	users, err := s.userRepo.ListLeaderboard(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	out := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		out = append(out, LeaderboardEntry{Rank: i + 1, Username: u.Username, XP: u.XP, Avatar: u.Avatar})
	}
	return out, nil
}

func (s *leaderboardService) Rank(ctx context.Context, u *types.User) (int, error) {
	if u == nil {
		return 0, nil
	}
	if s.cache != nil && u.Role == types.RoleUser {
		rank, ok, err := s.cache.Rank(ctx, u.Username)
		if err == nil && ok {
			return rank, nil
		}
		if err != nil {
			s.log.Warn("Leaderboard cache rank failed, using database", "error", err)
		}
	}
	return s.userRepo.Rank(dbctx.Context{Ctx: ctx}, u)
}

func (s *leaderboardService) Sync(ctx context.Context, u *types.User) {
	if s.cache == nil || u == nil || u.Role != types.RoleUser {
		return
	}
	if err := s.cache.SetScore(ctx, redisclient.Entry{Username: u.Username, XP: u.XP, Avatar: u.Avatar}); err != nil {
		s.log.Warn("Leaderboard cache update failed", "username", u.Username, "error", err)
	}
}

func (s *leaderboardService) Remove(ctx context.Context, usernames ...string) {
	if s.cache == nil || len(usernames) == 0 {
		return
	}
	if err := s.cache.Remove(ctx, usernames...); err != nil {
		s.log.Warn("Leaderboard cache remove failed", "error", err)
	}
}

func (s *leaderboardService) Rebuild(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	users, err := s.userRepo.ListByRole(dbctx.Context{Ctx: ctx}, types.RoleUser)
	if err != nil {
		return fmt.Errorf("load learners: %w", err)
	}
	entries := make([]redisclient.Entry, 0, len(users))
	for _, u := range users {
		entries = append(entries, redisclient.Entry{Username: u.Username, XP: u.XP, Avatar: u.Avatar})
	}
	return s.cache.Rebuild(ctx, entries)
}
