package models

import (
	"time"

	"gorm.io/gorm"
)

// ObservationDataNumber is an observation's contribution to the owning
// project's aggregate.
type ObservationDataNumber struct {
	Description string `json:"description" gorm:"size:300"`
	Quantity    int    `json:"quantity"`
}

// Observation is a child entity scoped under a project; it cannot exist
// without a live ancestor.
type Observation struct {
	ID              uint                  `json:"id" gorm:"primaryKey"`
	ProjectID       uint                  `json:"project_id" gorm:"not null;index"`
	Date            string                `json:"date" gorm:"size:40" validate:"max=40"`
	DataImage       Image                 `json:"data_image" gorm:"embedded;embeddedPrefix:data_image_"`
	DataNumber      ObservationDataNumber `json:"data_number" gorm:"embedded;embeddedPrefix:data_number_"`
	DataDescription string                `json:"data_description" gorm:"type:text" validate:"max=5000"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Injected, not stored
	Self        string `json:"self" gorm:"-"`
	ProjectSelf string `json:"project_self,omitempty" gorm:"-"`
}

func (Observation) TableName() string {
	return "observations"
}
