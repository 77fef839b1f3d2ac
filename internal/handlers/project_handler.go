package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wildwatch-edu/observation-service/internal/repositories"
	"github.com/wildwatch-edu/observation-service/internal/services"
	"github.com/wildwatch-edu/observation-service/internal/utils"
)

type ProjectHandler struct {
	BaseHandler
	projectService services.ProjectService
	exportService  services.ExportService
}

func NewProjectHandler(projectService services.ProjectService, exportService services.ExportService, logger utils.Logger) *ProjectHandler {
	return &ProjectHandler{
		BaseHandler:    NewBaseHandler(logger),
		projectService: projectService,
		exportService:  exportService,
	}
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), body, h.authHeader(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page := repositories.PageRequest{Cursor: c.Query("cursor")}

	response, err := h.projectService.List(c.Request.Context(), page)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating project", "project_id", id)

	project, err := h.projectService.Update(c.Request.Context(), id, body, h.authHeader(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting project", "project_id", id)

	if err := h.projectService.Delete(c.Request.Context(), id, h.authHeader(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportObservations streams the project's observations as a spreadsheet.
// Owner-only.
func (h *ProjectHandler) ExportObservations(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting observations", "project_id", id)

	data, filename, err := h.exportService.ExportObservations(c.Request.Context(), id, h.authHeader(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
