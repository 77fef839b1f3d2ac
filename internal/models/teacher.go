package models

import (
	"time"

	"gorm.io/gorm"
)

// Teacher is the root entity of the hierarchy. A teacher owns projects and
// exactly one credential record, which is created and deleted with it.
type Teacher struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Email        string `json:"email" gorm:"not null;uniqueIndex;size:255" validate:"required,email"`
	School       string `json:"school" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	ProfilePhoto string `json:"profile_photo" gorm:"size:512"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Projects   []Project   `json:"projects,omitempty" gorm:"foreignKey:TeacherID"`
	Credential *Credential `json:"-" gorm:"foreignKey:TeacherID"`

	// Injected, not stored
	Self string `json:"self" gorm:"-"`
}

func (Teacher) TableName() string {
	return "teachers"
}
