package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wildwatch-edu/observation-service/internal/repositories"
	"github.com/wildwatch-edu/observation-service/internal/services"
	"github.com/wildwatch-edu/observation-service/internal/utils"
)

type TeacherHandler struct {
	BaseHandler
	teacherService services.TeacherService
}

func NewTeacherHandler(teacherService services.TeacherService, logger utils.Logger) *TeacherHandler {
	return &TeacherHandler{
		BaseHandler:    NewBaseHandler(logger),
		teacherService: teacherService,
	}
}

// CreateTeacher registers a teacher account. This is the only unauthenticated
// write in the API; the credential material travels in the body and is split
// off into the encrypted credential store.
func (h *TeacherHandler) CreateTeacher(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	teacher, err := h.teacherService.Create(c.Request.Context(), body)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, teacher)
}

func (h *TeacherHandler) GetTeacher(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting teacher", "teacher_id", id)

	teacher, err := h.teacherService.GetByID(c.Request.Context(), id, h.authHeader(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, teacher)
}

func (h *TeacherHandler) ListTeachers(c *gin.Context) {
	page := repositories.PageRequest{Cursor: c.Query("cursor")}

	response, err := h.teacherService.List(c.Request.Context(), page)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TeacherHandler) UpdateTeacher(c *gin.Context) {
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

	h.LogRequest(c, "Updating teacher", "teacher_id", id)

	teacher, err := h.teacherService.Update(c.Request.Context(), id, body, h.authHeader(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, teacher)
}

func (h *TeacherHandler) DeleteTeacher(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting teacher", "teacher_id", id)

	if err := h.teacherService.Delete(c.Request.Context(), id, h.authHeader(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// IssueResetChallenge starts the forgot-password flow. Unauthenticated: the
// caller has lost the password. The response carries the secret questions
// and a short-lived one-time code.
func (h *TeacherHandler) IssueResetChallenge(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Issuing reset challenge", "teacher_id", id)

	challenge, err := h.teacherService.IssueResetChallenge(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, challenge)
}

// ResetPassword completes the flow. The Authorization header carries the
// reset code in place of the password; the body answers both secret
// questions and names the new password.
func (h *TeacherHandler) ResetPassword(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Resetting password", "teacher_id", id)

	if err := h.teacherService.ResetPassword(c.Request.Context(), id, &req, h.authHeader(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
