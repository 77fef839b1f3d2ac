package models

import (
	"time"

	"gorm.io/datatypes"
)

// Credential holds a teacher's secrets. Every stored string field is
// individually encrypted by the secrets box before it reaches this struct,
// so a credential row never contains plaintext. Credentials are created
// atomically with their teacher and removed by the teacher cascade; they are
// never exposed through the CRUD routes.
type Credential struct {
	ID        uint `json:"-" gorm:"primaryKey"`
	TeacherID uint `json:"-" gorm:"not null;uniqueIndex"`

	// Encrypted password (base64 ciphertext).
	Password string `json:"-" gorm:"not null;size:512"`

	// SecretQuestions is a JSON document of individually encrypted strings
	// keyed question_1, question_2, answer_1, answer_2.
	SecretQuestions datatypes.JSON `json:"-"`

	ResetCode ResetCode `json:"-" gorm:"embedded;embeddedPrefix:reset_code_"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// ResetCode is a single-use, time-bounded challenge. Code is stored
// encrypted; Expires is compared against the wall clock at use.
type ResetCode struct {
	Code    string     `json:"-" gorm:"size:512"`
	Expires *time.Time `json:"-"`
}

// SecretQuestions is the decrypted view of the credential's question/answer
// pairs. It only ever exists in memory.
type SecretQuestions struct {
	Question1 string `json:"question_1" validate:"required,min=1,max=300"`
	Question2 string `json:"question_2" validate:"required,min=1,max=300"`
	Answer1   string `json:"answer_1" validate:"required,min=1,max=300"`
	Answer2   string `json:"answer_2" validate:"required,min=1,max=300"`
}

func (Credential) TableName() string {
	return "credentials"
}
