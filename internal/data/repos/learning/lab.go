package learning

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/javuy-backend/internal/data/dberr"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type LabRepo interface {
	Create(dbc dbctx.Context, labs []*types.Lab) ([]*types.Lab, error)
	Upsert(dbc dbctx.Context, labs []*types.Lab) error
	GetByID(dbc dbctx.Context, id int) (*types.Lab, error)
	List(dbc dbctx.Context) ([]*types.Lab, error)
	MaxID(dbc dbctx.Context) (int, error)
	Update(dbc dbctx.Context, id int, fields map[string]any) (int64, error)
	FullDeleteByIDs(dbc dbctx.Context, ids []int) (int64, error)
}

type labRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLabRepo(db *gorm.DB, baseLog *logger.Logger) LabRepo {
	repoLog := baseLog.With("repo", "LabRepo")
	return &labRepo{db: db, log: repoLog}
}

func (r *labRepo) Create(dbc dbctx.Context, labs []*types.Lab) ([]*types.Lab, error) {
	if len(labs) == 0 {
		return []*types.Lab{}, nil
	}
	if err := dbc.DB(r.db).Create(&labs).Error; err != nil {
		return nil, dberr.Translate(err)
	}
	return labs, nil
}

// Upsert writes labs by id, replacing the content of existing rows.
func (r *labRepo) Upsert(dbc dbctx.Context, labs []*types.Lab) error {
	if len(labs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "pdf_url", "files", "updated_at"}),
		}).
		Create(&labs).Error
}

func (r *labRepo) GetByID(dbc dbctx.Context, id int) (*types.Lab, error) {
	var lab types.Lab
	err := dbc.DB(r.db).Where("id = ?", id).First(&lab).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lab, nil
}

func (r *labRepo) List(dbc dbctx.Context) ([]*types.Lab, error) {
	var results []*types.Lab
	if err := dbc.DB(r.db).
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *labRepo) MaxID(dbc dbctx.Context) (int, error) {
	var max int
	if err := dbc.DB(r.db).
		Model(&types.Lab{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

func (r *labRepo) Update(dbc dbctx.Context, id int, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Model(&types.Lab{}).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *labRepo) FullDeleteByIDs(dbc dbctx.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).
		Where("id IN ?", ids).
		Delete(&types.Lab{})
	return res.RowsAffected, res.Error
}
