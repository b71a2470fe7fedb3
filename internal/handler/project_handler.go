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

type ProjectHandler struct {
	hierarchyLogic *logic.HierarchyLogic
}

func NewProjectHandler(db *gorm.DB, hub *notify.Hub) *ProjectHandler {
	return &ProjectHandler{
		hierarchyLogic: logic.NewHierarchyLogic(db, hub),
	}
}

// CreateProject creates a project
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var project model.ProjectModel
	if err := c.ShouldBindJSON(&project); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.hierarchyLogic.CreateProject(&project); err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "project created", project)
}

// GetProjects lists all projects
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.hierarchyLogic.GetProjects()
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", projects)
}

// GetProject returns one project
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	project, err := h.hierarchyLogic.GetProject(id)
	if err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", project)
}

// DeleteProject removes a project and its whole subtree
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.hierarchyLogic.DeleteProject(id); err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "project deleted", nil)
}

// CreatePhase creates a phase under a project
func (h *ProjectHandler) CreatePhase(c *gin.Context) {
	var phase model.PhaseModel
	if err := c.ShouldBindJSON(&phase); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.hierarchyLogic.CreatePhase(&phase); err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "phase created", phase)
}

// CreateDeliverable creates a deliverable, optionally inside a phase
func (h *ProjectHandler) CreateDeliverable(c *gin.Context) {
	var deliverable model.DeliverableModel
	if err := c.ShouldBindJSON(&deliverable); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.hierarchyLogic.CreateDeliverable(&deliverable); err != nil {
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "deliverable created", deliverable)
}

// idParam parses the :id path parameter
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
