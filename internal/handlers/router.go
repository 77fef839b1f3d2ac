package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wildwatch-edu/observation-service/internal/services"
	"github.com/wildwatch-edu/observation-service/internal/utils"
)

type HandlerManager struct {
	teacherHandler     *TeacherHandler
	projectHandler     *ProjectHandler
	observationHandler *ObservationHandler

	serviceManager services.ServiceManager
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		teacherHandler:     NewTeacherHandler(serviceManager.Teacher(), logger),
		projectHandler:     NewProjectHandler(serviceManager.Project(), serviceManager.Export(), logger),
		observationHandler: NewObservationHandler(serviceManager.Observation(), logger),
		serviceManager:     serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		teachers := v1.Group("/teachers")
		{
			teachers.POST("", hm.teacherHandler.CreateTeacher)
			teachers.GET("", hm.teacherHandler.ListTeachers)
			teachers.GET("/:id", hm.teacherHandler.GetTeacher)
			teachers.PATCH("/:id", hm.teacherHandler.UpdateTeacher)
			teachers.DELETE("/:id", hm.teacherHandler.DeleteTeacher)

			teachers.POST("/:id/reset-challenge", hm.teacherHandler.IssueResetChallenge)
			teachers.POST("/:id/reset-password", hm.teacherHandler.ResetPassword)
		}

		projects := v1.Group("/projects")
		{
			projects.POST("", hm.projectHandler.CreateProject)
			projects.GET("", hm.projectHandler.ListProjects)
			projects.GET("/:id", hm.projectHandler.GetProject)
			projects.PATCH("/:id", hm.projectHandler.UpdateProject)
			projects.DELETE("/:id", hm.projectHandler.DeleteProject)

			observations := projects.Group("/:id/observations")
			{
				observations.POST("", hm.observationHandler.CreateObservation)
				observations.GET("", hm.observationHandler.ListObservations)
				observations.GET("/export", hm.projectHandler.ExportObservations)
				observations.GET("/:observation_id", hm.observationHandler.GetObservation)
				observations.PATCH("/:observation_id", hm.observationHandler.UpdateObservation)
				observations.DELETE("/:observation_id", hm.observationHandler.DeleteObservation)
			}
		}
	}
}

// HealthCheck reports service liveness and backing-store health.
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	health := "healthy"
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		health = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":    health,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "observation-service",
	})
}
