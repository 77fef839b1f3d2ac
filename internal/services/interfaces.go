package services

import (
	"context"
	"time"

	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
	"github.com/wildwatch-edu/observation-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type TeacherCreateRequest = validator.TeacherCreateRequest
type TeacherUpdateRequest = validator.TeacherUpdateRequest
type ProjectCreateRequest = validator.ProjectCreateRequest
type ProjectUpdateRequest = validator.ProjectUpdateRequest
type ObservationCreateRequest = validator.ObservationCreateRequest
type ObservationUpdateRequest = validator.ObservationUpdateRequest
type ResetPasswordRequest = validator.ResetPasswordRequest

type TeacherListResponse struct {
	Teachers []*models.Teacher `json:"teachers"`
	Cursor   string            `json:"cursor,omitempty"`
}

type ProjectListResponse struct {
	Projects []*models.Project `json:"projects"`
	Cursor   string            `json:"cursor,omitempty"`
}

type ObservationListResponse struct {
	Observations []*models.Observation `json:"observations"`
	Cursor       string                `json:"cursor,omitempty"`
}

// ResetChallengeResponse carries the plaintext reset code and the two secret
// questions (never the answers).
type ResetChallengeResponse struct {
	Question1 string    `json:"question_1"`
	Question2 string    `json:"question_2"`
	ResetCode string    `json:"reset_code"`
	Expires   time.Time `json:"expires"`
}

// ===== SERVICE INTERFACES =====

// Raw bodies arrive as decoded JSON maps so the schema registry can enforce
// its strict property policy before anything is merged into an entity.

type TeacherService interface {
	Create(ctx context.Context, body map[string]any) (*models.Teacher, error)
	GetByID(ctx context.Context, id uint, authHeader string) (*models.Teacher, error)
	List(ctx context.Context, page repositories.PageRequest) (*TeacherListResponse, error)
	Update(ctx context.Context, id uint, body map[string]any, authHeader string) (*models.Teacher, error)
	Delete(ctx context.Context, id uint, authHeader string) error

	// Reset flow
	IssueResetChallenge(ctx context.Context, teacherID uint) (*ResetChallengeResponse, error)
	ResetPassword(ctx context.Context, teacherID uint, req *ResetPasswordRequest, authHeader string) error
}

type ProjectService interface {
	Create(ctx context.Context, body map[string]any, authHeader string) (*models.Project, error)
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	List(ctx context.Context, page repositories.PageRequest) (*ProjectListResponse, error)
	Update(ctx context.Context, id uint, body map[string]any, authHeader string) (*models.Project, error)
	Delete(ctx context.Context, id uint, authHeader string) error
}

type ObservationService interface {
	Create(ctx context.Context, projectID uint, body map[string]any, authHeader string) (*models.Observation, error)
	GetByID(ctx context.Context, projectID, id uint) (*models.Observation, error)
	ListByProject(ctx context.Context, projectID uint, page repositories.PageRequest) (*ObservationListResponse, error)
	Update(ctx context.Context, projectID, id uint, body map[string]any, authHeader string) (*models.Observation, error)
	Delete(ctx context.Context, projectID, id uint, authHeader string) error
}

// CredentialService owns encryption at rest for teacher secrets. It is
// never exposed through CRUD routes; the teacher service and auth guard are
// its only consumers.
type CredentialService interface {
	Create(ctx context.Context, repo repositories.Repository, teacherID uint, password string, questions models.SecretQuestions) error
	Fetch(ctx context.Context, repo repositories.Repository, teacherID uint) (*models.Credential, error)
	IssueResetChallenge(ctx context.Context, teacherID uint) (*ResetChallengeResponse, error)
	VerifyPassword(credential *models.Credential, candidate string) bool
	VerifyResetCode(credential *models.Credential, candidate string, now time.Time) bool
	VerifySecretQuestions(credential *models.Credential, candidate models.SecretQuestions) bool
	UpdatePassword(ctx context.Context, repo repositories.Repository, credential *models.Credential, newPassword string) error
	UpdateSecretQuestions(ctx context.Context, repo repositories.Repository, credential *models.Credential, questions models.SecretQuestions) error
	ClearResetCode(ctx context.Context, repo repositories.Repository, credential *models.Credential) error
	Delete(ctx context.Context, repo repositories.Repository, teacherID uint) error
}

// AuthGuard interprets the opaque credential header and produces an
// ownership decision. Every mutating or owner-scoped operation funnels
// through Authorize, so its error taxonomy maps 1:1 onto HTTP statuses.
type AuthGuard interface {
	// Authorize parses header as base64(id:secret), optionally checks the
	// id against expectedOwnerID (0 skips the check), resolves the
	// credential through the given repository when credential is nil, and
	// verifies the password, or the reset code when useResetCode is set.
	Authorize(ctx context.Context, repo repositories.Repository, header string, expectedOwnerID uint, credential *models.Credential, useResetCode bool) error
}

// ExportService renders a project's observations as a spreadsheet.
type ExportService interface {
	ExportObservations(ctx context.Context, projectID uint, authHeader string) ([]byte, string, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Teacher() TeacherService
	Project() ProjectService
	Observation() ObservationService
	Credential() CredentialService
	Auth() AuthGuard
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
