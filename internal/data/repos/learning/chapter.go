package learning

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/javuy-backend/internal/data/dberr"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type ChapterRepo interface {
	Create(dbc dbctx.Context, chapters []*types.Chapter) ([]*types.Chapter, error)
	GetByID(dbc dbctx.Context, chapterID uuid.UUID) (*types.Chapter, error)
	GetByOrder(dbc dbctx.Context, order int) (*types.Chapter, error)
	ListOrdered(dbc dbctx.Context) ([]*types.Chapter, error)
	First(dbc dbctx.Context) (*types.Chapter, error)
	Next(dbc dbctx.Context, order int) (*types.Chapter, error)
	Previous(dbc dbctx.Context, order int) (*types.Chapter, error)
	OrderTaken(dbc dbctx.Context, order int, excludeID uuid.UUID) (bool, error)
	Count(dbc dbctx.Context) (int64, error)
	Update(dbc dbctx.Context, chapterID uuid.UUID, fields map[string]any) (int64, error)
	FullDeleteByIDs(dbc dbctx.Context, chapterIDs []uuid.UUID) (int64, error)
	FullDeleteAll(dbc dbctx.Context) error
}

type chapterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChapterRepo(db *gorm.DB, baseLog *logger.Logger) ChapterRepo {
	repoLog := baseLog.With("repo", "ChapterRepo")
	return &chapterRepo{db: db, log: repoLog}
}

var orderColumn = clause.Column{Name: "order"}

func (r *chapterRepo) Create(dbc dbctx.Context, chapters []*types.Chapter) ([]*types.Chapter, error) {
	if len(chapters) == 0 {
		return []*types.Chapter{}, nil
	}
	if err := dbc.DB(r.db).Create(&chapters).Error; err != nil {
		return nil, dberr.Translate(err)
	}
	return chapters, nil
}

func (r *chapterRepo) GetByID(dbc dbctx.Context, chapterID uuid.UUID) (*types.Chapter, error) {
	return r.first(dbc.DB(r.db).Where("id = ?", chapterID))
}

func (r *chapterRepo) GetByOrder(dbc dbctx.Context, order int) (*types.Chapter, error) {
	return r.first(dbc.DB(r.db).Where(clause.Eq{Column: orderColumn, Value: order}))
}

func (r *chapterRepo) ListOrdered(dbc dbctx.Context) ([]*types.Chapter, error) {
	var results []*types.Chapter
	if err := dbc.DB(r.db).
		Order(clause.OrderByColumn{Column: orderColumn}).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// First is the chapter with the lowest order, or nil when there are none.
func (r *chapterRepo) First(dbc dbctx.Context) (*types.Chapter, error) {
	return r.first(dbc.DB(r.db).Order(clause.OrderByColumn{Column: orderColumn}))
}

// Next is the chapter with the smallest order greater than order.
func (r *chapterRepo) Next(dbc dbctx.Context, order int) (*types.Chapter, error) {
	return r.first(dbc.DB(r.db).
		Where(clause.Gt{Column: orderColumn, Value: order}).
		Order(clause.OrderByColumn{Column: orderColumn}))
}

// Previous is the chapter with the largest order smaller than order.
func (r *chapterRepo) Previous(dbc dbctx.Context, order int) (*types.Chapter, error) {
	return r.first(dbc.DB(r.db).
		Where(clause.Lt{Column: orderColumn, Value: order}).
		Order(clause.OrderByColumn{Column: orderColumn, Desc: true}))
}

func (r *chapterRepo) OrderTaken(dbc dbctx.Context, order int, excludeID uuid.UUID) (bool, error) {
	q := dbc.DB(r.db).Model(&types.Chapter{}).Where(clause.Eq{Column: orderColumn, Value: order})
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *chapterRepo) Count(dbc dbctx.Context) (int64, error) {
	var count int64
	err := dbc.DB(r.db).Model(&types.Chapter{}).Count(&count).Error
	return count, err
}

func (r *chapterRepo) Update(dbc dbctx.Context, chapterID uuid.UUID, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Model(&types.Chapter{}).
		Where("id = ?", chapterID).
		Updates(fields)
	return res.RowsAffected, dberr.Translate(res.Error)
}

func (r *chapterRepo) FullDeleteByIDs(dbc dbctx.Context, chapterIDs []uuid.UUID) (int64, error) {
	if len(chapterIDs) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Where("id IN ?", chapterIDs).
		Delete(&types.Chapter{})
	return res.RowsAffected, res.Error
}

func (r *chapterRepo) FullDeleteAll(dbc dbctx.Context) error {
	return dbc.DB(r.db).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&types.Chapter{}).Error
}

func (r *chapterRepo) first(q *gorm.DB) (*types.Chapter, error) {
	var ch types.Chapter
	err := q.First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}
