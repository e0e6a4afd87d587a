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

// ChapterHandler serves the admin authoring endpoints.
type ChapterHandler struct {
	log            *logger.Logger
	chapterService services.ChapterService
}

func NewChapterHandler(log *logger.Logger, chapterService services.ChapterService) *ChapterHandler {
	return &ChapterHandler{
		log:            log.With("handler", "ChapterHandler"),
		chapterService: chapterService,
	}
}

// chapterBody accepts the id in the body for PUT /api/admin/chapters.
// Older editors send it as _id.
type chapterBody struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	services.ChapterInput
}

func (b chapterBody) chapterID() string {
	if s := strings.TrimSpace(b.ID); s != "" {
		return s
	}
	return strings.TrimSpace(b.LegacyID)
}

// POST /api/admin/chapters
func (ch *ChapterHandler) CreateChapter(c *gin.Context) {
	var req services.ChapterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	chapter, err := ch.chapterService.CreateChapter(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, ch.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"success": true, "chapter": chapter})
}

// PUT /api/admin/chapters and PUT /api/admin/chapters/:id
func (ch *ChapterHandler) UpdateChapter(c *gin.Context) {
	var req chapterBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rawID := strings.TrimSpace(c.Param("id"))
	if rawID == "" {
		rawID = req.chapterID()
	}
	chapterID, err := uuid.Parse(rawID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errInvalidID)
		return
	}
	chapter, err := ch.chapterService.UpdateChapter(c.Request.Context(), chapterID, req.ChapterInput)
	if err != nil {
		response.RespondServiceError(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "chapter": chapter})
}

// DELETE /api/admin/chapters/:id
func (ch *ChapterHandler) DeleteChapter(c *gin.Context) {
	chapterID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ch.chapterService.DeleteChapter(c.Request.Context(), chapterID); err != nil {
		response.RespondServiceError(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// POST /api/admin/clear
func (ch *ChapterHandler) ClearContent(c *gin.Context) {
	if err := ch.chapterService.ClearContent(c.Request.Context()); err != nil {
		response.RespondServiceError(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "All content cleared. You can now build from scratch."})
}
