package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wildwatch-edu/observation-service/internal/repositories"
	"github.com/wildwatch-edu/observation-service/internal/services"
	"github.com/wildwatch-edu/observation-service/internal/utils"
)

// ObservationHandler serves the project-scoped observation routes. Every
// route carries the ancestor project id in the path.
type ObservationHandler struct {
	BaseHandler
	observationService services.ObservationService
}

func NewObservationHandler(observationService services.ObservationService, logger utils.Logger) *ObservationHandler {
	return &ObservationHandler{
		BaseHandler:        NewBaseHandler(logger),
		observationService: observationService,
	}
}

func (h *ObservationHandler) CreateObservation(c *gin.Context) {
	projectID := h.parseIDParam(c, "id")
	if projectID == 0 {
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

	observation, err := h.observationService.Create(c.Request.Context(), projectID, body, h.authHeader(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, observation)
}

func (h *ObservationHandler) GetObservation(c *gin.Context) {
	projectID := h.parseIDParam(c, "id")
	if projectID == 0 {
		return
	}
	observationID := h.parseIDParam(c, "observation_id")
	if observationID == 0 {
		return
	}

	observation, err := h.observationService.GetByID(c.Request.Context(), projectID, observationID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, observation)
}

func (h *ObservationHandler) ListObservations(c *gin.Context) {
	projectID := h.parseIDParam(c, "id")
	if projectID == 0 {
		return
	}

	page := repositories.PageRequest{Cursor: c.Query("cursor")}

	response, err := h.observationService.ListByProject(c.Request.Context(), projectID, page)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ObservationHandler) UpdateObservation(c *gin.Context) {
	projectID := h.parseIDParam(c, "id")
	if projectID == 0 {
		return
	}
	observationID := h.parseIDParam(c, "observation_id")
	if observationID == 0 {
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

	h.LogRequest(c, "Updating observation", "project_id", projectID, "observation_id", observationID)

	observation, err := h.observationService.Update(c.Request.Context(), projectID, observationID, body, h.authHeader(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, observation)
}

func (h *ObservationHandler) DeleteObservation(c *gin.Context) {
	projectID := h.parseIDParam(c, "id")
	if projectID == 0 {
		return
	}
	observationID := h.parseIDParam(c, "observation_id")
	if observationID == 0 {
		return
	}

	h.LogRequest(c, "Deleting observation", "project_id", projectID, "observation_id", observationID)

	if err := h.observationService.Delete(c.Request.Context(), projectID, observationID, h.authHeader(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
