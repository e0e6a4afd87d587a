package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/javuy-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		Username: username,
		Password: "pw",
		Role:     types.RoleUser,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		Username: username,
		Password: "pw",
		Role:     types.RoleAdmin,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed admin: %v", err)
	}
	return u
}

func SeedChapter(tb testing.TB, ctx context.Context, tx *gorm.DB, order int, blocks ...types.ContentBlock) *types.Chapter {
	tb.Helper()
	if blocks == nil {
		blocks = []types.ContentBlock{{Type: types.BlockText, Value: fmt.Sprintf("chapter %d", order)}}
	}
	raw, err := json.Marshal(blocks)
	if err != nil {
		tb.Fatalf("marshal blocks: %v", err)
	}
	ch := &types.Chapter{
		Title:    fmt.Sprintf("Chapter %d", order),
		Order:    order,
		Content:  datatypes.JSON(raw),
		XPReward: 10,
	}
	if err := tx.WithContext(ctx).Create(ch).Error; err != nil {
		tb.Fatalf("seed chapter: %v", err)
	}
	return ch
}

func SeedLab(tb testing.TB, ctx context.Context, tx *gorm.DB, id int) *types.Lab {
	tb.Helper()
	lab := &types.Lab{
		ID:          id,
		Title:       fmt.Sprintf("Lab %d", id),
		Description: "# Lab",
		Files: datatypes.JSONSlice[types.LabFile]{
			{Name: "Main.java", Content: "public class Main {}"},
		},
	}
	if err := tx.WithContext(ctx).Create(lab).Error; err != nil {
		tb.Fatalf("seed lab: %v", err)
	}
	return lab
}
