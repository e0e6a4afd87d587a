package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

func TestScoreRoundTrip(t *testing.T) {
	for _, xp := range []int{0, 10, 9999} {
		if got := xpFor(scoreFor(xp)); got != xp {
			t.Fatalf("xp %d round-tripped to %d", xp, got)
		}
	}
	if scoreFor(50) >= scoreFor(10) {
		t.Fatalf("higher xp must sort first in ascending order")
	}
}

func TestLeaderboardIntegration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	log, _ := logger.New("test")
	lb, err := NewLeaderboard(log, Options{Addr: addr, KeyPrefix: "javuytest-" + uuid.NewString()})
	if err != nil {
		t.Fatalf("NewLeaderboard: %v", err)
	}
	defer lb.Close()
	ctx := context.Background()

	if err := lb.Rebuild(ctx, []Entry{
		{Username: "carol", XP: 20},
		{Username: "bob", XP: 50, Avatar: "b.png"},
		{Username: "alice", XP: 20},
	}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	top, err := lb.Top(ctx, 10)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	want := []string{"bob", "alice", "carol"}
	if len(top) != 3 {
		t.Fatalf("Top: %+v", top)
	}
	for i, name := range want {
		if top[i].Username != name {
			t.Fatalf("Top order: got %+v want %v", top, want)
		}
	}
	if top[0].XP != 50 || top[0].Avatar != "b.png" {
		t.Fatalf("Top entry: %+v", top[0])
	}

	if err := lb.SetScore(ctx, Entry{Username: "carol", XP: 70}); err != nil {
		t.Fatalf("SetScore: %v", err)
	}
	if rank, ok, err := lb.Rank(ctx, "carol"); err != nil || !ok || rank != 1 {
		t.Fatalf("Rank: rank=%d ok=%v err=%v", rank, ok, err)
	}
	if err := lb.Remove(ctx, "carol"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := lb.Rank(ctx, "carol"); ok {
		t.Fatalf("carol should be gone")
	}
	_ = lb.Rebuild(ctx, nil)
}
