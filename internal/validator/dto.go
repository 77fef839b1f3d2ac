package validator

import "github.com/wildwatch-edu/observation-service/internal/models"

// Request DTOs shared between handlers and services. Bodies are first
// checked against the property sets in schema.go, then decoded into these.

type TeacherCreateRequest struct {
	Name            string                 `json:"name" validate:"required,min=1,max=100"`
	Email           string                 `json:"email" validate:"required,email"`
	School          string                 `json:"school" validate:"required,min=1,max=200"`
	Password        string                 `json:"password" validate:"required,teacher_password"`
	SecretQuestions models.SecretQuestions `json:"secret_questions" validate:"required"`
	ProfilePhoto    *string                `json:"profile_photo" validate:"omitempty,url"`
}

type TeacherUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email        *string `json:"email" validate:"omitempty,email"`
	School       *string `json:"school" validate:"omitempty,min=1,max=200"`
	ProfilePhoto *string `json:"profile_photo" validate:"omitempty,url"`
}

type ProjectDataNumberRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	MustBeUnique bool   `json:"must_be_unique"`
}

type ImageRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	URL     string `json:"url" validate:"required,url"`
	AltText string `json:"alt_text" validate:"max=300"`
}

type ProjectCreateRequest struct {
	TeacherID       uint                     `json:"teacher_id" validate:"required"`
	Name            string                   `json:"name" validate:"required,min=1,max=200"`
	DataNumber      ProjectDataNumberRequest `json:"data_number" validate:"required"`
	DescriptionImg  *ImageRequest            `json:"description_image"`
	DescriptionText *string                  `json:"description_text" validate:"omitempty,max=5000"`
}

type ProjectUpdateRequest struct {
	Name            *string       `json:"name" validate:"omitempty,min=1,max=200"`
	DescriptionImg  *ImageRequest `json:"description_image"`
	DescriptionText *string       `json:"description_text" validate:"omitempty,max=5000"`
}

type ObservationDataNumberRequest struct {
	Description string `json:"description" validate:"required,min=1,max=300"`
	Quantity    int    `json:"quantity" validate:"min=0"`
}

type ObservationCreateRequest struct {
	Date            string                       `json:"date" validate:"required,observation_date"`
	DataNumber      ObservationDataNumberRequest `json:"data_number" validate:"required"`
	DataImage       *ImageRequest                `json:"data_image"`
	DataDescription *string                      `json:"data_description" validate:"omitempty,max=5000"`
}

type ObservationUpdateRequest struct {
	Date            *string                       `json:"date" validate:"omitempty,observation_date"`
	DataNumber      *ObservationDataNumberRequest `json:"data_number"`
	DataImage       *ImageRequest                 `json:"data_image"`
	DataDescription *string                       `json:"data_description" validate:"omitempty,max=5000"`
}

// ResetPasswordRequest accompanies an Authorization header that carries the
// reset code in place of the password.
type ResetPasswordRequest struct {
	SecretQuestions models.SecretQuestions `json:"secret_questions" validate:"required"`
	NewPassword     string                 `json:"new_password" validate:"required,teacher_password"`
}
