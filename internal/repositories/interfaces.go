package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/wildwatch-edu/observation-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// PageRequest asks for one page of a kind-scoped listing. Cursor is the
// opaque continuation token from a previous page; empty means first page.
type PageRequest struct {
	Cursor   string `json:"cursor"`
	PageSize int    `json:"page_size"`
}

// ===== PER-ENTITY REPOSITORIES =====

// All methods accept the enclosing transaction as tx; implementations fall
// back to their own connection when tx is nil.

type TeacherRepository interface {
	Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Teacher, error)
	Update(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, page PageRequest) ([]*models.Teacher, string, error)
	Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, tx *gorm.DB, project *models.Project) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Project, error)
	Update(ctx context.Context, tx *gorm.DB, project *models.Project) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error
	List(ctx context.Context, tx *gorm.DB, page PageRequest) ([]*models.Project, string, error)
	// AllByTeacher returns every project owned by the teacher, unpaginated;
	// used by the cascade deleter inside a transaction.
	AllByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Project, error)
	Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	// UpdateDataNumber persists only the derived aggregate value.
	UpdateDataNumber(ctx context.Context, tx *gorm.DB, projectID uint, number int) error
}

type ObservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, observation *models.Observation) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Observation, error)
	Update(ctx context.Context, tx *gorm.DB, observation *models.Observation) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uint, page PageRequest) ([]*models.Observation, string, error)
	// AllByProject returns every observation under the project, unpaginated;
	// used by the cascade deleter and the export service.
	AllByProject(ctx context.Context, tx *gorm.DB, projectID uint) ([]*models.Observation, error)
	// Descriptions is a projection of data_number.description across the
	// project's observations, excluding excludeID when non-zero. The
	// aggregate maintainer reads it inside the mutating transaction.
	Descriptions(ctx context.Context, tx *gorm.DB, projectID uint, excludeID uint) ([]string, error)
}

type CredentialRepository interface {
	Create(ctx context.Context, tx *gorm.DB, credential *models.Credential) error
	GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) (*models.Credential, error)
	Update(ctx context.Context, tx *gorm.DB, credential *models.Credential) error
	DeleteByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) error
}
