package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/data/dberr"
	"github.com/yungbote/javuy-backend/internal/data/repos"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/apierr"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

var errOrderTaken = apierr.Conflict("order_taken", "Chapter with this order number already exists.")

// ChapterInput carries admin edits. Nil fields are left alone on update.
type ChapterInput struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Order       *int            `json:"order"`
	Content     json.RawMessage `json:"content"`
	XPReward    *int            `json:"xpReward"`
}

type ChapterService interface {
	CreateChapter(ctx context.Context, in ChapterInput) (*types.Chapter, error)
	UpdateChapter(ctx context.Context, chapterID uuid.UUID, in ChapterInput) (*types.Chapter, error)
	DeleteChapter(ctx context.Context, chapterID uuid.UUID) error
	ClearContent(ctx context.Context) error
}

type chapterService struct {
	db           *gorm.DB
	log          *logger.Logger
	chapterRepo  repos.ChapterRepo
	progressRepo repos.ProgressRepo
}

func NewChapterService(db *gorm.DB, log *logger.Logger, chapterRepo repos.ChapterRepo, progressRepo repos.ProgressRepo) ChapterService {
	return &chapterService{
		db:           db,
		log:          log.With("service", "ChapterService"),
		chapterRepo:  chapterRepo,
		progressRepo: progressRepo,
	}
}

func (cs *chapterService) CreateChapter(ctx context.Context, in ChapterInput) (*types.Chapter, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" || in.Order == nil || isEmptyContent(in.Content) {
		return nil, apierr.BadRequest("missing_fields", "Missing required fields")
	}
	if *in.Order <= 0 {
		return nil, apierr.BadRequest("invalid_order", "order must be a positive integer")
	}
	content, _, err := types.NormalizeContent(in.Content)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_content", err)
	}
	xp := types.DefaultXPReward
	if in.XPReward != nil {
		if *in.XPReward < 0 {
			return nil, apierr.BadRequest("invalid_xp_reward", "xpReward must not be negative")
		}
		xp = *in.XPReward
	}
	ch := &types.Chapter{
		Title:    strings.TrimSpace(*in.Title),
		Order:    *in.Order,
		Content:  content,
		XPReward: xp,
	}
	if in.Description != nil {
		ch.Description = *in.Description
	}

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		taken, err := cs.chapterRepo.OrderTaken(dbc, ch.Order, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check order: %w", err)
		}
		if taken {
			return errOrderTaken
		}
		_, err = cs.chapterRepo.Create(dbc, []*types.Chapter{ch})
		return err
	})
	if err != nil {
		if errors.Is(err, dberr.ErrConflict) {
			return nil, errOrderTaken
		}
		return nil, err
	}
	cs.log.Info("Chapter created", "chapter_id", ch.ID, "order", ch.Order)
	return ch, nil
}

func (cs *chapterService) UpdateChapter(ctx context.Context, chapterID uuid.UUID, in ChapterInput) (*types.Chapter, error) {
	if chapterID == uuid.Nil {
		return nil, apierr.BadRequest("missing_id", "Chapter id is required")
	}
	fields := map[string]any{}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apierr.BadRequest("invalid_title", "title must not be empty")
		}
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Order != nil {
		if *in.Order <= 0 {
			return nil, apierr.BadRequest("invalid_order", "order must be a positive integer")
		}
		fields["order"] = *in.Order
	}
	if len(in.Content) > 0 {
		if isEmptyContent(in.Content) {
			return nil, apierr.BadRequest("invalid_content", "content must not be empty")
		}
		content, _, err := types.NormalizeContent(in.Content)
		if err != nil {
			return nil, apierr.New(http.StatusBadRequest, "invalid_content", err)
		}
		fields["content"] = content
	}
	if in.XPReward != nil {
		if *in.XPReward < 0 {
			return nil, apierr.BadRequest("invalid_xp_reward", "xpReward must not be negative")
		}
		fields["xp_reward"] = *in.XPReward
	}

	var updated *types.Chapter
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := cs.chapterRepo.GetByID(dbc, chapterID)
		if err != nil {
			return fmt.Errorf("load chapter: %w", err)
		}
		if existing == nil {
			return errChapterNotFound
		}
		if in.Order != nil && *in.Order != existing.Order {
			taken, err := cs.chapterRepo.OrderTaken(dbc, *in.Order, chapterID)
			if err != nil {
				return fmt.Errorf("check order: %w", err)
			}
			if taken {
				return errOrderTaken
			}
		}
		if len(fields) > 0 {
			if _, err := cs.chapterRepo.Update(dbc, chapterID, fields); err != nil {
				return err
			}
		}
		updated, err = cs.chapterRepo.GetByID(dbc, chapterID)
		return err
	})
	if err != nil {
		if errors.Is(err, dberr.ErrConflict) {
			return nil, errOrderTaken
		}
		return nil, err
	}
	return updated, nil
}

func (cs *chapterService) DeleteChapter(ctx context.Context, chapterID uuid.UUID) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		n, err := cs.chapterRepo.FullDeleteByIDs(dbc, []uuid.UUID{chapterID})
		if err != nil {
			return fmt.Errorf("delete chapter: %w", err)
		}
		if n == 0 {
			return errChapterNotFound
		}
		if err := cs.progressRepo.FullDeleteByChapterIDs(dbc, []uuid.UUID{chapterID}); err != nil {
			return fmt.Errorf("delete chapter progress: %w", err)
		}
		return nil
	})
}

func (cs *chapterService) ClearContent(ctx context.Context) error {
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := cs.progressRepo.FullDeleteAll(dbc); err != nil {
			return fmt.Errorf("clear progress: %w", err)
		}
		if err := cs.chapterRepo.FullDeleteAll(dbc); err != nil {
			return fmt.Errorf("clear chapters: %w", err)
		}
		return nil
	})
	if err == nil {
		cs.log.Warn("All chapters and progress cleared")
	}
	return err
}

func isEmptyContent(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == `""` || s == "[]"
}
