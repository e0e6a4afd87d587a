package app

import (
	httpH "github.com/yungbote/javuy-backend/internal/http/handlers"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Auth    *httpH.AuthHandler
	Journey *httpH.JourneyHandler
	Chapter *httpH.ChapterHandler
	Lab     *httpH.LabHandler
	Compile *httpH.CompileHandler
	Upload  *httpH.UploadHandler
	Profile *httpH.ProfileHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Auth: httpH.NewAuthHandler(log, services.Auth, httpH.AuthHandlerConfig{
			SecureCookie: cfg.IsProduction(),
			CookieDomain: cfg.Auth.CookieDomain,
		}),
		Journey: httpH.NewJourneyHandler(log, services.Journey),
		Chapter: httpH.NewChapterHandler(log, services.Chapter),
		Lab:     httpH.NewLabHandler(log, services.Lab),
		Compile: httpH.NewCompileHandler(log, services.Compile),
		Upload:  httpH.NewUploadHandler(log, services.Upload),
		Profile: httpH.NewProfileHandler(log, services.Profile, services.Leaderboard),
	}
}
