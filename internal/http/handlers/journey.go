package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/javuy-backend/internal/http/response"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/services"
)

type JourneyHandler struct {
	log            *logger.Logger
	journeyService services.JourneyService
}

func NewJourneyHandler(log *logger.Logger, journeyService services.JourneyService) *JourneyHandler {
	return &JourneyHandler{
		log:            log.With("handler", "JourneyHandler"),
		journeyService: journeyService,
	}
}

// GET /api/journey
func (jh *JourneyHandler) GetJourney(c *gin.Context) {
	journey, err := jh.journeyService.GetJourney(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, jh.log, err)
		return
	}
	response.RespondOK(c, journey)
}

// GET /api/chapters/:id
func (jh *JourneyHandler) GetChapter(c *gin.Context) {
	chapterID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	view, err := jh.journeyService.GetChapter(c.Request.Context(), chapterID)
	if err != nil {
		response.RespondServiceError(c, jh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"chapter": view})
}

// POST /api/complete
// body: { "chapterId": "<uuid>" }
func (jh *JourneyHandler) Complete(c *gin.Context) {
	var req struct {
		ChapterID string `json:"chapterId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.ChapterID) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_chapter_id", errMissingChapterID)
		return
	}
	chapterID, err := uuid.Parse(strings.TrimSpace(req.ChapterID))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errInvalidID)
		return
	}
	res, err := jh.journeyService.Complete(c.Request.Context(), chapterID)
	if err != nil {
		response.RespondServiceError(c, jh.log, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/reset
func (jh *JourneyHandler) Reset(c *gin.Context) {
	if err := jh.journeyService.Reset(c.Request.Context()); err != nil {
		response.RespondServiceError(c, jh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Progress reset successfully"})
}

// POST /api/chapters/:id/check
// body: { "blockIndex": 2, "code": "..." } or { "blockIndex": 3, "answer": 1 }
func (jh *JourneyHandler) CheckExercise(c *gin.Context) {
	chapterID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := jh.journeyService.CheckExercise(c.Request.Context(), chapterID, req)
	if err != nil {
		response.RespondServiceError(c, jh.log, err)
		return
	}
	response.RespondOK(c, res)
}
