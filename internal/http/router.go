package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/javuy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/javuy-backend/internal/http/middleware"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	EnableTracing  bool
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler  *httpH.HealthHandler
	AuthHandler    *httpH.AuthHandler
	JourneyHandler *httpH.JourneyHandler
	ChapterHandler *httpH.ChapterHandler
	LabHandler     *httpH.LabHandler
	CompileHandler *httpH.CompileHandler
	UploadHandler  *httpH.UploadHandler
	ProfileHandler *httpH.ProfileHandler

	// UploadsDir is served at /uploads when objects are kept on local disk.
	UploadsDir string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.EnableTracing {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.MaxMultipartMemory = 16 << 20

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.UploadsDir != "" {
		r.Static("/uploads", cfg.UploadsDir)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/logout", cfg.AuthHandler.Logout)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
		}

		// Journey
		if cfg.JourneyHandler != nil {
			protected.GET("/journey", cfg.JourneyHandler.GetJourney)
			protected.GET("/chapters/:id", cfg.JourneyHandler.GetChapter)
			protected.POST("/chapters/:id/check", cfg.JourneyHandler.CheckExercise)
			protected.POST("/complete", cfg.JourneyHandler.Complete)
			protected.POST("/reset", cfg.JourneyHandler.Reset)
		}

		// Profile + leaderboard
		if cfg.ProfileHandler != nil {
			protected.GET("/profile", cfg.ProfileHandler.GetProfile)
			protected.POST("/profile/avatar", cfg.ProfileHandler.UploadAvatar)
			protected.GET("/leaderboard", cfg.ProfileHandler.Leaderboard)
		}

		if cfg.CompileHandler != nil {
			protected.POST("/compile", cfg.CompileHandler.Compile)
		}

		// Labs (read)
		if cfg.LabHandler != nil {
			protected.GET("/labs", cfg.LabHandler.ListLabs)
			protected.GET("/labs/:id", cfg.LabHandler.GetLab)
		}
	}

	admin := protected.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireAdmin())
		}

		if cfg.ChapterHandler != nil {
			admin.POST("/admin/chapters", cfg.ChapterHandler.CreateChapter)
			admin.PUT("/admin/chapters", cfg.ChapterHandler.UpdateChapter)
			admin.PUT("/admin/chapters/:id", cfg.ChapterHandler.UpdateChapter)
			admin.DELETE("/admin/chapters/:id", cfg.ChapterHandler.DeleteChapter)
			admin.POST("/admin/clear", cfg.ChapterHandler.ClearContent)
		}

		if cfg.LabHandler != nil {
			admin.POST("/labs", cfg.LabHandler.CreateLab)
			admin.PUT("/labs/:id", cfg.LabHandler.UpdateLab)
			admin.DELETE("/labs/:id", cfg.LabHandler.DeleteLab)
		}

		if cfg.UploadHandler != nil {
			admin.POST("/upload", cfg.UploadHandler.Upload)
		}
	}

	return r
}
