package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/tts/internal/logic"
	"github.com/blues/tts/internal/model"
	"github.com/blues/tts/internal/notify"
	"github.com/blues/tts/internal/rollup"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	hierarchyLogic *logic.HierarchyLogic
	statusLogic    *logic.StatusLogic
}

func NewTaskHandler(db *gorm.DB, hub *notify.Hub, policy rollup.StatusPolicy) *TaskHandler {
	return &TaskHandler{
		hierarchyLogic: logic.NewHierarchyLogic(db, hub),
		statusLogic:    logic.NewStatusLogic(db, hub, policy),
	}
}

// Create inserts a task under a deliverable
func (h *TaskHandler) Create(c *gin.Context) {
	var task model.TaskModel
	if err := c.ShouldBindJSON(&task); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.hierarchyLogic.CreateTask(&task); err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "task created", task)
}

// ToggleCompletion flips the completed flag and cascades status upward
func (h *TaskHandler) ToggleCompletion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid task id")
		return
	}

	var req ToggleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.statusLogic.ToggleTaskCompletion(id, *req.Completed)
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "task updated", task)
}
