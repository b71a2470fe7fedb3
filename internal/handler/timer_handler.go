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

type TimerHandler struct {
	timerLogic *logic.TimerLogic
}

func NewTimerHandler(db *gorm.DB, hub *notify.Hub) *TimerHandler {
	return &TimerHandler{
		timerLogic: logic.NewTimerLogic(db, hub),
	}
}

// Start begins a timer session; any running session is finalized first
func (h *TimerHandler) Start(c *gin.Context) {
	var req StartTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.timerLogic.Start(model.TimeTarget{Kind: model.TargetKind(req.Kind), Id: req.Id})
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "timer started", NewSessionResponse(session, h.timerLogic.Now()))
}

// Pause finalizes the session; the client keeps its last displayed value
func (h *TimerHandler) Pause(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.timerLogic.Pause(id)
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "timer paused", NewSessionResponse(session, h.timerLogic.Now()))
}

// Stop finalizes the session and tells the client to zero its counter
func (h *TimerHandler) Stop(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.timerLogic.Stop(id)
	if err != nil {
		FailFromError(c, err)
		return
	}

	resp := NewSessionResponse(session, h.timerLogic.Now())
	resp.ResetElapsed = true
	SuccessResponse(c, http.StatusOK, "timer stopped", resp)
}

// Active reports the running session, if any
func (h *TimerHandler) Active(c *gin.Context) {
	session, err := h.timerLogic.Active()
	if err != nil {
		FailFromError(c, err)
		return
	}
	if session == nil {
		SuccessResponse(c, http.StatusOK, "no active session", nil)
		return
	}

	SuccessResponse(c, http.StatusOK, "", NewSessionResponse(session, h.timerLogic.Now()))
}
