package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/data/repos/auth"
	"github.com/yungbote/javuy-backend/internal/data/repos/learning"
	"github.com/yungbote/javuy-backend/internal/data/repos/user"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type ChapterRepo = learning.ChapterRepo
type ProgressRepo = learning.ProgressRepo
type LabRepo = learning.LabRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewChapterRepo(db *gorm.DB, baseLog *logger.Logger) ChapterRepo {
	return learning.NewChapterRepo(db, baseLog)
}
func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return learning.NewProgressRepo(db, baseLog)
}
func NewLabRepo(db *gorm.DB, baseLog *logger.Logger) LabRepo {
	return learning.NewLabRepo(db, baseLog)
}
