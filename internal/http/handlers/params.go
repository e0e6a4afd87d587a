package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/javuy-backend/internal/http/response"
)

var (
	errInvalidID    = errors.New("Invalid id")
	errInvalidLabID = errors.New("Lab id must be a positive integer")

	errMissingChapterID = errors.New("chapterId is required")
	errNoFile           = errors.New("No file uploaded")
	errAvatarTooLarge   = errors.New("Avatar must be 5 MB or smaller")
)

// uuidParam parses a path parameter, answering 400 itself on failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func labIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_lab_id", errInvalidLabID)
		return 0, false
	}
	return id, true
}
