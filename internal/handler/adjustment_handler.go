package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/tts/internal/logic"
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdjustmentHandler struct {
	ledgerLogic *logic.LedgerLogic
}

func NewAdjustmentHandler(db *gorm.DB, hub *notify.Hub) *AdjustmentHandler {
	return &AdjustmentHandler{
		ledgerLogic: logic.NewLedgerLogic(db, hub),
	}
}

// Create appends a manual time adjustment
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	adjustment, err := h.ledgerLogic.ApplyAdjustment(
		model.TimeTarget{Kind: model.TargetKind(req.Kind), Id: req.Id},
		req.Seconds,
		req.Note,
	)
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "time adjusted", adjustment)
}

// List returns the adjustment history for one target, newest first
func (h *AdjustmentHandler) List(c *gin.Context) {
	target, ok := targetFromQuery(c)
	if !ok {
		return
	}

	adjustments, err := h.ledgerLogic.Adjustments(target)
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", adjustments)
}

// Total returns the cached running total for one target
func (h *AdjustmentHandler) Total(c *gin.Context) {
	target, ok := targetFromQuery(c)
	if !ok {
		return
	}

	total, err := h.ledgerLogic.CurrentTotal(target)
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", TotalResponse{
		Kind:         string(target.Kind),
		Id:           target.Id,
		TotalSeconds: total,
	})
}

// targetFromQuery parses ?kind=&id= into a target
func targetFromQuery(c *gin.Context) (model.TimeTarget, bool) {
	kind := c.Query("kind")
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || kind == "" {
		ErrorResponse(c, http.StatusBadRequest, "kind and id query parameters are required")
		return model.TimeTarget{}, false
	}
	return model.TimeTarget{Kind: model.TargetKind(kind), Id: id}, true
}
