package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/javuy-backend/internal/http/response"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/services"
)

type CompileHandler struct {
	log            *logger.Logger
	compileService services.CompileService
}

func NewCompileHandler(log *logger.Logger, compileService services.CompileService) *CompileHandler {
	return &CompileHandler{
		log:            log.With("handler", "CompileHandler"),
		compileService: compileService,
	}
}

// POST /api/compile
// body: { "code": "..." } or { "files": [{ "name": "Main.java", "content": "..." }] }
func (ch *CompileHandler) Compile(c *gin.Context) {
	var req services.CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := ch.compileService.Compile(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, ch.log, err)
		return
	}
	response.RespondOK(c, res)
}
