package services

import (
	"errors"

	"github.com/wildwatch-edu/observation-service/internal/repositories"
	"github.com/wildwatch-edu/observation-service/internal/validator"
)

// ValidationErrors is raised by schema and struct validation; handlers map
// it to 400.
type ValidationErrors = validator.ValidationErrors

// Sentinel errors for the service layer. The handlers translate these 1:1
// onto HTTP status codes, so every owner-scoped operation shares one error
// taxonomy.
var (
	ErrValidationFailed = errors.New("validation failed")

	ErrTeacherNotFound     = errors.New("teacher not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrObservationNotFound = errors.New("observation not found")
	ErrCredentialNotFound  = errors.New("credential not found")

	// ErrUnauthenticated: missing header, bad password, or expired/bad
	// reset code.
	ErrUnauthenticated = errors.New("missing or invalid credentials")

	// ErrMalformedCredentials: the header exists but cannot be decoded.
	ErrMalformedCredentials = errors.New("malformed credential header")

	// ErrOwnershipDenied: authenticated, but as a different owner. Kept
	// distinct from ErrUnauthenticated so a valid login against the wrong
	// resource reads as Forbidden, never as a bad password.
	ErrOwnershipDenied = errors.New("authenticated as a different owner")

	// ErrPasswordReused: policy violation on reset, also Forbidden.
	ErrPasswordReused = errors.New("new password must differ from the current password")

	// ErrInvalidCursor re-exports the repository sentinel; handlers map it
	// to 409.
	ErrInvalidCursor = repositories.ErrInvalidCursor

	// ErrUnprocessableImage: referenced image URL is absent, unreachable,
	// or not an image.
	ErrUnprocessableImage = errors.New("image url missing, unreachable, or not an image")

	// ErrStorageFailed wraps store/blob backend failures.
	ErrStorageFailed = errors.New("storage operation failed")
)
