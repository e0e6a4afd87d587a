package learning

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type ProgressRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Progress, error)
	GetByUserAndChapter(dbc dbctx.Context, userID, chapterID uuid.UUID) (*types.Progress, error)
	MarkCompleted(dbc dbctx.Context, userID, chapterID uuid.UUID, at time.Time) (int64, error)
	Activate(dbc dbctx.Context, userID, chapterID uuid.UUID) error
	CountCompleted(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
	FullDeleteByChapterIDs(dbc dbctx.Context, chapterIDs []uuid.UUID) error
	FullDeleteAll(dbc dbctx.Context) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	repoLog := baseLog.With("repo", "ProgressRepo")
	return &progressRepo{db: db, log: repoLog}
}

var progressKey = []clause.Column{{Name: "user_id"}, {Name: "chapter_id"}}

func (r *progressRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Progress, error) {
	var results []*types.Progress
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) GetByUserAndChapter(dbc dbctx.Context, userID, chapterID uuid.UUID) (*types.Progress, error) {
	var p types.Progress
	err := dbc.DB(r.db).
		Where("user_id = ? AND chapter_id = ?", userID, chapterID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkCompleted completes the row and reports how many rows changed. A row
// that is already completed is left untouched and yields 0.
func (r *progressRepo) MarkCompleted(dbc dbctx.Context, userID, chapterID uuid.UUID, at time.Time) (int64, error) {
	row := &types.Progress{
		UserID:      userID,
		ChapterID:   chapterID,
		Status:      types.StatusCompleted,
		CompletedAt: &at,
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   progressKey,
			DoUpdates: clause.AssignmentColumns([]string{"status", "completed_at", "updated_at"}),
			Where:     notCompleted(),
		}).
		Create(row)
	return res.RowsAffected, res.Error
}

// Activate sets the row to active. A completed row is left as it is.
func (r *progressRepo) Activate(dbc dbctx.Context, userID, chapterID uuid.UUID) error {
	row := &types.Progress{
		UserID:    userID,
		ChapterID: chapterID,
		Status:    types.StatusActive,
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   progressKey,
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
			Where:     notCompleted(),
		}).
		Create(row).Error
}

func notCompleted() clause.Where {
	return clause.Where{Exprs: []clause.Expression{
		clause.Neq{Column: clause.Column{Table: types.Progress{}.TableName(), Name: "status"}, Value: types.StatusCompleted},
	}}
}

func (r *progressRepo) CountCompleted(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := dbc.DB(r.db).
		Model(&types.Progress{}).
		Where("user_id = ? AND status = ?", userID, types.StatusCompleted).
		Count(&count).Error
	return count, err
}

func (r *progressRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("user_id IN ?", userIDs).
		Delete(&types.Progress{}).Error
}

func (r *progressRepo) FullDeleteByChapterIDs(dbc dbctx.Context, chapterIDs []uuid.UUID) error {
	if len(chapterIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("chapter_id IN ?", chapterIDs).
		Delete(&types.Progress{}).Error
}

func (r *progressRepo) FullDeleteAll(dbc dbctx.Context) error {
	return dbc.DB(r.db).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&types.Progress{}).Error
}
