package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Avatar      services.AvatarService
	Leaderboard services.LeaderboardService
	Compile     services.CompileService
	Journey     services.JourneyService
	Chapter     services.ChapterService
	Lab         services.LabService
	Profile     services.ProfileService
	Upload      services.UploadService
	Seed        services.SeedService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	avatar, err := services.NewAvatarService(log, cfg.AvatarMode, clients.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	leaderboard := services.NewLeaderboardService(db, log, repos.User, clients.Leaderboard)
	compile := services.NewCompileService(log, clients.Runner)

	return Services{
		Auth: services.NewAuthService(db, log, repos.User, repos.UserToken, repos.Chapter, repos.Progress, avatar, leaderboard, services.AuthConfig{
			JWTSecret:  cfg.Auth.JWTSecret,
			AccessTTL:  cfg.Auth.AccessTTL,
			RefreshTTL: cfg.Auth.RefreshTTL,
			BcryptCost: cfg.Auth.BcryptCost,
		}),
		Avatar:      avatar,
		Leaderboard: leaderboard,
		Compile:     compile,
		Journey:     services.NewJourneyService(db, log, repos.User, repos.Chapter, repos.Progress, compile, leaderboard),
		Chapter:     services.NewChapterService(db, log, repos.Chapter, repos.Progress),
		Lab:         services.NewLabService(db, log, repos.Lab),
		Profile:     services.NewProfileService(db, log, repos.User, repos.Chapter, repos.Progress, avatar, leaderboard),
		Upload:      services.NewUploadService(log, clients.Bucket),
		Seed:        services.NewSeedService(db, log, repos.User, repos.UserToken, repos.Chapter, repos.Progress, repos.Lab, leaderboard, cfg.Auth.BcryptCost),
	}, nil
}
