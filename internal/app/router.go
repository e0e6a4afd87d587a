package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/javuy-backend/internal/http"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/platform/objectstore"
)

func wireRouter(log *logger.Logger, cfg Config, clients Clients, handlers Handlers, middleware Middleware) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	uploadsDir := ""
	if local, ok := clients.Bucket.(objectstore.LocalRoot); ok {
		uploadsDir = local.Root()
	}
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		ServiceName:    cfg.Otel.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		EnableTracing:  cfg.Otel.Enabled,
		AuthMiddleware: middleware.Auth,
		HealthHandler:  handlers.Health,
		AuthHandler:    handlers.Auth,
		JourneyHandler: handlers.Journey,
		ChapterHandler: handlers.Chapter,
		LabHandler:     handlers.Lab,
		CompileHandler: handlers.Compile,
		UploadHandler:  handlers.Upload,
		ProfileHandler: handlers.Profile,
		UploadsDir:     uploadsDir,
	})
}
