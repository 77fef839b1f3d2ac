package models

import (
	"time"

	"gorm.io/gorm"
)

// DataNumber is the derived aggregate a project maintains over its
// observations. Number is server-owned after creation: it equals the sum of
// observation quantities, or the count of distinct descriptions when
// MustBeUnique is set.
type DataNumber struct {
	Name         string `json:"name" gorm:"size:200"`
	MustBeUnique bool   `json:"must_be_unique"`
	Number       int    `json:"number"`
}

// Image describes an embedded image reference. The blob itself lives in
// object storage and follows the lifecycle of the owning field.
type Image struct {
	Title   string `json:"title" gorm:"size:200"`
	URL     string `json:"url" gorm:"size:512"`
	AltText string `json:"alt_text" gorm:"size:300"`
}

// Project is a root entity owned by a teacher. Observations are its
// ancestor-scoped children.
type Project struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	TeacherID       uint       `json:"teacher_id" gorm:"not null;index"` // immutable after creation
	Name            string     `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	DataNumber      DataNumber `json:"data_number" gorm:"embedded;embeddedPrefix:data_number_"`
	DescriptionImg  Image      `json:"description_image" gorm:"embedded;embeddedPrefix:description_image_"`
	DescriptionText string     `json:"description_text" gorm:"type:text" validate:"max=5000"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Observations []Observation `json:"observations,omitempty" gorm:"foreignKey:ProjectID"`

	// Injected, not stored
	Self        string `json:"self" gorm:"-"`
	TeacherSelf string `json:"teacher_self,omitempty" gorm:"-"`
}

func (Project) TableName() string {
	return "projects"
}
