package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	redisclient "github.com/yungbote/javuy-backend/internal/clients/redis"
	"github.com/yungbote/javuy-backend/internal/data/repos/testutil"
)

type fakeBoard struct {
	mu      sync.Mutex
	entries map[string]redisclient.Entry
	failTop bool
}

func newFakeBoard() *fakeBoard { return &fakeBoard{entries: map[string]redisclient.Entry{}} }

func (f *fakeBoard) SetScore(_ context.Context, e redisclient.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.Username] = e
	return nil
}

func (f *fakeBoard) Remove(_ context.Context, usernames ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range usernames {
		delete(f.entries, u)
	}
	return nil
}

func (f *fakeBoard) sorted() []redisclient.Entry {
	out := make([]redisclient.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		return out[i].Username < out[j].Username
	})
	return out
}

func (f *fakeBoard) Top(_ context.Context, limit int) ([]redisclient.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTop {
		return nil, errors.New("redis down")
	}
	out := f.sorted()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBoard) Rank(_ context.Context, username string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.sorted() {
		if e.Username == username {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeBoard) Rebuild(_ context.Context, entries []redisclient.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = map[string]redisclient.Entry{}
	for _, e := range entries {
		f.entries[e.Username] = e
	}
	return nil
}

func (f *fakeBoard) Close() error { return nil }

func TestLeaderboardFromDatabaseExcludesAdmins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.seedUser(t, "ada")
	bob := env.seedUser(t, "bob")
	env.seedUser(t, "cy")
	env.seedAdmin(t, "root")
	require.NoError(t, env.users.AddXP(dbc(ctx), bob.ID, 30))
	require.NoError(t, env.users.AddXP(dbc(ctx), ada.ID, 30))

	top, err := env.leaderboard.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	require.Equal(t, []string{"ada", "bob", "cy"}, []string{top[0].Username, top[1].Username, top[2].Username})
	require.Equal(t, 1, top[0].Rank)
	require.Equal(t, 30, top[0].XP)

	top, err = env.leaderboard.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
}

func TestClampLeaderboardLimit(t *testing.T) {
	require.Equal(t, DefaultLeaderboardLimit, ClampLeaderboardLimit(0))
	require.Equal(t, DefaultLeaderboardLimit, ClampLeaderboardLimit(-4))
	require.Equal(t, 25, ClampLeaderboardLimit(25))
	require.Equal(t, MaxLeaderboardLimit, ClampLeaderboardLimit(5000))
}

func TestLeaderboardCacheRebuildAndFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.seedUser(t, "ada")
	env.seedUser(t, "bob")
	env.seedAdmin(t, "root")
	require.NoError(t, env.users.AddXP(dbc(ctx), ada.ID, 5))

	board := newFakeBoard()
	svc := NewLeaderboardService(env.db, testutil.Logger(t), env.users, board)
	require.NoError(t, svc.Rebuild(ctx))
	require.Len(t, board.entries, 2)

	top, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "ada", top[0].Username)

	rank, err := svc.Rank(ctx, env.reload(t, ada))
	require.NoError(t, err)
	require.Equal(t, 1, rank)

	board.failTop = true
	top, err = svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "ada", top[0].Username)
}

func TestLeaderboardSyncSkipsAdmins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	board := newFakeBoard()
	svc := NewLeaderboardService(env.db, testutil.Logger(t), env.users, board)

	svc.Sync(ctx, env.seedAdmin(t, "root"))
	require.Empty(t, board.entries)

	ada := env.seedUser(t, "ada")
	svc.Sync(ctx, ada)
	require.Contains(t, board.entries, "ada")

	svc.Remove(ctx, "ada")
	require.Empty(t, board.entries)
}
