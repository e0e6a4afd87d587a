package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/javuy-backend/internal/http/response"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/services"
)

type ProfileHandler struct {
	log                *logger.Logger
	profileService     services.ProfileService
	leaderboardService services.LeaderboardService
}

func NewProfileHandler(log *logger.Logger, profileService services.ProfileService, leaderboardService services.LeaderboardService) *ProfileHandler {
	return &ProfileHandler{
		log:                log.With("handler", "ProfileHandler"),
		profileService:     profileService,
		leaderboardService: leaderboardService,
	}
}

// GET /api/profile
func (ph *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := ph.profileService.GetProfile(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, ph.log, err)
		return
	}
	response.RespondOK(c, profile)
}

// POST /api/profile/avatar (multipart, field "file")
func (ph *ProfileHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "no_file", errNoFile)
		return
	}
	if fh.Size > services.MaxAvatarBytes {
		response.RespondError(c, http.StatusBadRequest, "avatar_too_large", errAvatarTooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "no_file", err)
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, services.MaxAvatarBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_image", err)
		return
	}
	user, err := ph.profileService.UploadAvatar(c.Request.Context(), raw)
	if err != nil {
		response.RespondServiceError(c, ph.log, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

// GET /api/leaderboard?limit=10
func (ph *ProfileHandler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	entries, err := ph.leaderboardService.Top(c.Request.Context(), limit)
	if err != nil {
		response.RespondServiceError(c, ph.log, err)
		return
	}
	response.RespondOK(c, gin.H{"leaderboard": entries})
}
