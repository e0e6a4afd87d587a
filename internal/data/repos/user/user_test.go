package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/javuy-backend/internal/data/dberr"
	"github.com/yungbote/javuy-backend/internal/data/repos/testutil"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{{Username: "userrepo_a", Password: "pw"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: unexpected result: %+v", created)
	}
	if created[0].Role != types.RoleUser || created[0].Avatar == "" {
		t.Fatalf("Create: defaults not applied: %+v", created[0])
	}

	if _, err := repo.Create(dbc, []*types.User{{Username: "userrepo_a", Password: "pw"}}); !errors.Is(err, dberr.ErrConflict) {
		// Postgres aborts the transaction on a failed insert; stop here.
		t.Fatalf("Create duplicate: expected conflict, got %v", err)
	}
}

func TestUserRepoLookupsAndStats(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "userrepo_b")

	got, err := repo.GetByUsername(dbc, "userrepo_b")
	if err != nil || got == nil || got.ID != u.ID {
		t.Fatalf("GetByUsername: got=%+v err=%v", got, err)
	}
	missing, err := repo.GetByUsername(dbc, "userrepo_missing")
	if err != nil || missing != nil {
		t.Fatalf("GetByUsername missing: got=%+v err=%v", missing, err)
	}
	if exists, err := repo.UsernameExists(dbc, "userrepo_b"); err != nil || !exists {
		t.Fatalf("UsernameExists: exists=%v err=%v", exists, err)
	}

	if err := repo.AddXP(dbc, u.ID, 15); err != nil {
		t.Fatalf("AddXP: %v", err)
	}
	now := time.Now().UTC()
	if err := repo.UpdateStreak(dbc, u.ID, 3, now); err != nil {
		t.Fatalf("UpdateStreak: %v", err)
	}
	byID, err := repo.GetByID(dbc, u.ID)
	if err != nil || byID == nil {
		t.Fatalf("GetByID: got=%+v err=%v", byID, err)
	}
	if byID.XP != 15 || byID.Streak != 3 || byID.LastActiveAt == nil {
		t.Fatalf("unexpected stats: xp=%d streak=%d last=%v", byID.XP, byID.Streak, byID.LastActiveAt)
	}

	if err := repo.UpdateAvatarFields(dbc, u.ID, "avatars/x.png", "https://cdn/x.png"); err != nil {
		t.Fatalf("UpdateAvatarFields: %v", err)
	}
	if err := repo.ResetStats(dbc, u.ID); err != nil {
		t.Fatalf("ResetStats: %v", err)
	}
	byID, _ = repo.GetByID(dbc, u.ID)
	if byID.XP != 0 || byID.Streak != 0 || byID.LastActiveAt != nil {
		t.Fatalf("ResetStats: unexpected stats %+v", byID)
	}
	if byID.Avatar != "https://cdn/x.png" || byID.AvatarBucketKey != "avatars/x.png" {
		t.Fatalf("UpdateAvatarFields: unexpected avatar %q key %q", byID.Avatar, byID.AvatarBucketKey)
	}
}

func TestUserRepoLeaderboardAndRank(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	a := testutil.SeedUser(t, ctx, tx, "lb_alice")
	b := testutil.SeedUser(t, ctx, tx, "lb_bob")
	c := testutil.SeedUser(t, ctx, tx, "lb_carol")
	admin := testutil.SeedAdmin(t, ctx, tx, "lb_admin")
	for id, xp := range map[uuid.UUID]int{a.ID: 20, b.ID: 50, c.ID: 20, admin.ID: 999} {
		if err := repo.AddXP(dbc, id, xp); err != nil {
			t.Fatalf("AddXP: %v", err)
		}
	}

	top, err := repo.ListLeaderboard(dbc, 10)
	if err != nil {
		t.Fatalf("ListLeaderboard: %v", err)
	}
	var names []string
	for _, u := range top {
		if u.Username == "lb_admin" {
			t.Fatalf("admin must not appear on the leaderboard")
		}
		if len(u.Username) > 3 && u.Username[:3] == "lb_" {
			names = append(names, u.Username)
		}
	}
	want := []string{"lb_bob", "lb_alice", "lb_carol"}
	if len(names) < len(want) {
		t.Fatalf("ListLeaderboard: got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ListLeaderboard order: got %v want %v", names, want)
		}
	}

	c.XP = 20
	rank, err := repo.Rank(dbc, c)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	bRank, _ := repo.Rank(dbc, &types.User{Username: "lb_bob", XP: 50})
	if rank-bRank != 2 {
		t.Fatalf("Rank: carol=%d bob=%d, expected carol two places below bob", rank, bRank)
	}

	learners, err := repo.ListByRole(dbc, types.RoleUser)
	if err != nil {
		t.Fatalf("ListByRole: %v", err)
	}
	for _, u := range learners {
		if u.Role != types.RoleUser {
			t.Fatalf("ListByRole returned %s with role %s", u.Username, u.Role)
		}
	}
	if len(learners) < 3 {
		t.Fatalf("ListByRole: got %d learners", len(learners))
	}
}
