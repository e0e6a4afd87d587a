package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/javuy-backend/internal/http/response"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
	"github.com/yungbote/javuy-backend/internal/services"
)

type LabHandler struct {
	log        *logger.Logger
	labService services.LabService
}

func NewLabHandler(log *logger.Logger, labService services.LabService) *LabHandler {
	return &LabHandler{
		log:        log.With("handler", "LabHandler"),
		labService: labService,
	}
}

// GET /api/labs
func (lh *LabHandler) ListLabs(c *gin.Context) {
	labs, err := lh.labService.ListLabs(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, lh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"labs": labs})
}

// GET /api/labs/:id
func (lh *LabHandler) GetLab(c *gin.Context) {
	id, ok := labIDParam(c)
	if !ok {
		return
	}
	lab, err := lh.labService.GetLab(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, lh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"lab": lab})
}

// POST /api/labs
func (lh *LabHandler) CreateLab(c *gin.Context) {
	var req services.LabInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lab, err := lh.labService.CreateLab(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, lh.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"lab": lab})
}

// PUT /api/labs/:id
func (lh *LabHandler) UpdateLab(c *gin.Context) {
	id, ok := labIDParam(c)
	if !ok {
		return
	}
	var req services.LabInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	lab, err := lh.labService.UpdateLab(c.Request.Context(), id, req)
	if err != nil {
		response.RespondServiceError(c, lh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"lab": lab})
}

// DELETE /api/labs/:id
func (lh *LabHandler) DeleteLab(c *gin.Context) {
	id, ok := labIDParam(c)
	if !ok {
		return
	}
	if err := lh.labService.DeleteLab(c.Request.Context(), id); err != nil {
		response.RespondServiceError(c, lh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Lab deleted"})
}
