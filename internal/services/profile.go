package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/data/repos"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type ProfileStats struct {
	CompletedChapters int64 `json:"completed_chapters"`
	TotalChapters     int64 `json:"total_chapters"`
	Rank              int   `json:"rank"`
}

type Profile struct {
	User  *types.User  `json:"user"`
	Stats ProfileStats `json:"stats"`
}

type ProfileService interface {
	GetProfile(ctx context.Context) (*Profile, error)
	UploadAvatar(ctx context.Context, raw []byte) (*types.User, error)
}

type profileService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	chapterRepo   repos.ChapterRepo
	progressRepo  repos.ProgressRepo
	avatarService AvatarService
	leaderboard   LeaderboardService
}

func NewProfileService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	chapterRepo repos.ChapterRepo,
	progressRepo repos.ProgressRepo,
	avatarService AvatarService,
	leaderboard LeaderboardService,
) ProfileService {
	return &profileService{
		db:            db,
		log:           log.With("service", "ProfileService"),
		userRepo:      userRepo,
		chapterRepo:   chapterRepo,
		progressRepo:  progressRepo,
		avatarService: avatarService,
		leaderboard:   leaderboard,
	}
}

func (ps *profileService) GetProfile(ctx context.Context) (*Profile, error) {
	user, err := ps.caller(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}

	completed, err := ps.progressRepo.CountCompleted(dbc, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count completed: %w", err)
	}
	total, err := ps.chapterRepo.Count(dbc)
	if err != nil {
		return nil, fmt.Errorf("count chapters: %w", err)
	}
	rank, err := ps.leaderboard.Rank(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	return &Profile{
		User: user,
		Stats: ProfileStats{
			CompletedChapters: completed,
			TotalChapters:     total,
			Rank:              rank,
		},
	}, nil
}

func (ps *profileService) UploadAvatar(ctx context.Context, raw []byte) (*types.User, error) {
	if len(raw) == 0 {
		return nil, apierr.BadRequest("no_file", "No file uploaded")
	}
	user, err := ps.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := ps.avatarService.ReplaceFromImage(ctx, user, raw); err != nil {
		return nil, err
	}
	if err := ps.userRepo.UpdateAvatarFields(dbctx.Context{Ctx: ctx}, user.ID, user.AvatarBucketKey, user.Avatar); err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}
	ps.leaderboard.Sync(ctx, user)
	return user, nil
}

func (ps *profileService) caller(ctx context.Context) (*types.User, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := ps.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.NotFound("user_not_found", "User not found")
	}
	return user, nil
}
