package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

// CredentialPostgreSQL persists encrypted credential rows. Deliberately no
// caching: secrets never sit in redis.
type CredentialPostgreSQL struct {
	db *gorm.DB
}

func NewCredentialPostgreSQL(db *gorm.DB) repositories.CredentialRepository {
	return &CredentialPostgreSQL{db: db}
}

func (r *CredentialPostgreSQL) Create(ctx context.Context, tx *gorm.DB, credential *models.Credential) error {
	if err := getDB(tx, r.db).WithContext(ctx).Create(credential).Error; err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

func (r *CredentialPostgreSQL) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) (*models.Credential, error) {
	var credential models.Credential
	err := getDB(tx, r.db).WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		First(&credential).Error
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

func (r *CredentialPostgreSQL) Update(ctx context.Context, tx *gorm.DB, credential *models.Credential) error {
	if err := getDB(tx, r.db).WithContext(ctx).Save(credential).Error; err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	return nil
}

func (r *CredentialPostgreSQL) DeleteByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) error {
	result := getDB(tx, r.db).WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Delete(&models.Credential{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete credential: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
