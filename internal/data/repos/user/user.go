package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/javuy-backend/internal/data/dberr"
	types "github.com/yungbote/javuy-backend/internal/domain"
	"github.com/yungbote/javuy-backend/internal/platform/dbctx"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.User, error)
	UsernameExists(dbc dbctx.Context, username string) (bool, error)
	AddXP(dbc dbctx.Context, userID uuid.UUID, delta int) error
	UpdateStreak(dbc dbctx.Context, userID uuid.UUID, streak int, activeAt time.Time) error
	ResetStats(dbc dbctx.Context, userID uuid.UUID) error
	UpdateAvatarFields(dbc dbctx.Context, userID uuid.UUID, bucketKey, avatarURL string) error
	ListLeaderboard(dbc dbctx.Context, limit int) ([]*types.User, error)
	ListByRole(dbc dbctx.Context, role string) ([]*types.User, error)
	Rank(dbc dbctx.Context, u *types.User) (int, error)
	FullDeleteAll(dbc dbctx.Context) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	transaction := dbc.DB(ur.db)

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	if err := transaction.Create(&users).Error; err != nil {
		return nil, dberr.Translate(err)
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := dbc.DB(ur.db)

	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID returns nil without error when the user does not exist.
func (ur *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	var u types.User
	err := dbc.DB(ur.db).Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername returns nil without error when the user does not exist.
func (ur *userRepo) GetByUsername(dbc dbctx.Context, username string) (*types.User, error) {
	var u types.User
	err := dbc.DB(ur.db).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (ur *userRepo) UsernameExists(dbc dbctx.Context, username string) (bool, error) {
	var count int64
	if err := dbc.DB(ur.db).
		Model(&types.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) AddXP(dbc dbctx.Context, userID uuid.UUID, delta int) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("xp", gorm.Expr("xp + ?", delta)).Error
}

func (ur *userRepo) UpdateStreak(dbc dbctx.Context, userID uuid.UUID, streak int, activeAt time.Time) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"streak":         streak,
			"last_active_at": activeAt,
		}).Error
}

func (ur *userRepo) ResetStats(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"xp":             0,
			"streak":         0,
			"last_active_at": nil,
		}).Error
}

func (ur *userRepo) UpdateAvatarFields(dbc dbctx.Context, userID uuid.UUID, bucketKey, avatarURL string) error {
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"avatar_bucket_key": bucketKey,
			"avatar":            avatarURL,
		}).Error
}

func (ur *userRepo) ListLeaderboard(dbc dbctx.Context, limit int) ([]*types.User, error) {
	var results []*types.User
	if limit <= 0 {
		return results, nil
	}
	if err := dbc.DB(ur.db).
		Where("role = ?", types.RoleUser).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "xp"}, Desc: true},
			{Column: clause.Column{Name: "username"}},
		}}).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) ListByRole(dbc dbctx.Context, role string) ([]*types.User, error) {
	var results []*types.User
	if err := dbc.DB(ur.db).
		Where("role = ?", role).
		Order("username ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Rank is the 1-based leaderboard position of u among learners. Ties on XP
// break by username, matching ListLeaderboard.
func (ur *userRepo) Rank(dbc dbctx.Context, u *types.User) (int, error) {
	if u == nil {
		return 0, nil
	}
	var ahead int64
	if err := dbc.DB(ur.db).
		Model(&types.User{}).
		Where("role = ?", types.RoleUser).
		Where("xp > ? OR (xp = ? AND username < ?)", u.XP, u.XP, u.Username).
		Count(&ahead).Error; err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

func (ur *userRepo) FullDeleteAll(dbc dbctx.Context) error {
	return dbc.DB(ur.db).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&types.User{}).Error
}
