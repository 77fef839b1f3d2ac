package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wildwatch-edu/observation-service/internal/services"
	"github.com/wildwatch-edu/observation-service/internal/utils"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

// parseIDParam reads a positive integer path parameter. On failure it writes
// the 400 itself and returns 0; 0 is never a valid entity id.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// authHeader extracts the credential header. The API accepts it raw or with
// the Basic scheme; the service layer parses either form.
func (h *BaseHandler) authHeader(c *gin.Context) string {
	return c.GetHeader("Authorization")
}

// handleServiceError translates the service error taxonomy onto HTTP.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs services.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrMalformedCredentials):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrOwnershipDenied),
		errors.Is(err, services.ErrPasswordReused):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrTeacherNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrObservationNotFound),
		errors.Is(err, services.ErrCredentialNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrInvalidCursor):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrUnprocessableImage):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: err.Error()})

	case errors.Is(err, services.ErrStorageFailed):
		utils.FromContext(c, h.logger).Error("Storage failure", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: "Storage backend unavailable"})

	default:
		utils.FromContext(c, h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
