package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/tts/internal/logic"
	"github.com/blues/tts/internal/rollup"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReportHandler struct {
	reportLogic *logic.ReportLogic
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{
		reportLogic: logic.NewReportLogic(db),
	}
}

// ProjectReport returns the full live rollup for one project: times,
// statuses, progress, efficiency and currency projections
func (h *ReportHandler) ProjectReport(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	report, err := h.reportLogic.ProjectReport(id)
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", report)
}

// EntityTime returns the live time rollup for any entity,
// ?kind=task|deliverable|phase|project&id=N
func (h *ReportHandler) EntityTime(c *gin.Context) {
	kind := c.Query("kind")
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || kind == "" {
		ErrorResponse(c, http.StatusBadRequest, "kind and id query parameters are required")
		return
	}

	seconds, err := h.reportLogic.TargetSeconds(kind, id)
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", TimeResponse{
		Kind:         kind,
		Id:           id,
		TotalSeconds: seconds,
		TotalHours:   rollup.Hours(seconds),
	})
}
