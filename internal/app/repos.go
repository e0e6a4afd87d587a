package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/data/repos"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Chapter   repos.ChapterRepo
	Progress  repos.ProgressRepo
	Lab       repos.LabRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),
		Chapter:   repos.NewChapterRepo(db, log),
		Progress:  repos.NewProgressRepo(db, log),
		Lab:       repos.NewLabRepo(db, log),
	}
}
