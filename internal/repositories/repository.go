package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates the per-entity repositories. Implementations hand
// out transaction-bound copies of themselves through WithTransaction; the
// tx parameter on the individual methods carries that transaction through
// the call chain.
type Repository interface {
	Teacher() TeacherRepository
	Project() ProjectRepository
	Observation() ObservationRepository
	Credential() CredentialRepository

	// WithTransaction runs fn inside a single store transaction; any error
	// rolls the whole transaction back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// IsNotFoundError reports whether err is the store's record-missing error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsInvalidCursorError reports whether err came from decoding a bad
// continuation cursor.
func IsInvalidCursorError(err error) bool {
	return errors.Is(err, ErrInvalidCursor)
}
