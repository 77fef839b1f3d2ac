package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/wildwatch-edu/observation-service/internal/cache"
	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

type ObservationPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewObservationPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ObservationRepository {
	return &ObservationPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (r *ObservationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, observation *models.Observation) error {
	if err := getDB(tx, r.db).WithContext(ctx).Create(observation).Error; err != nil {
		return fmt.Errorf("failed to create observation: %w", err)
	}
	cache.InvalidateObservationCache(ctx, r.cacheManager, observation.ID, observation.ProjectID)
	return nil
}

func (r *ObservationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Observation, error) {
	var observation models.Observation
	if err := getDB(tx, r.db).WithContext(ctx).First(&observation, id).Error; err != nil {
		return nil, err
	}
	return &observation, nil
}

func (r *ObservationPostgreSQL) Update(ctx context.Context, tx *gorm.DB, observation *models.Observation) error {
	if err := getDB(tx, r.db).WithContext(ctx).Save(observation).Error; err != nil {
		return fmt.Errorf("failed to update observation: %w", err)
	}
	cache.InvalidateObservationCache(ctx, r.cacheManager, observation.ID, observation.ProjectID)
	return nil
}

func (r *ObservationPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	observation, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := getDB(tx, r.db).WithContext(ctx).Delete(&models.Observation{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete observation: %w", err)
	}
	cache.InvalidateObservationCache(ctx, r.cacheManager, id, observation.ProjectID)
	return nil
}

func (r *ObservationPostgreSQL) DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := getDB(tx, r.db).WithContext(ctx).Delete(&models.Observation{}, ids).Error; err != nil {
		return fmt.Errorf("failed to batch delete observations: %w", err)
	}
	for _, id := range ids {
		cache.SafeDelete(ctx, r.cacheManager.Observation, fmt.Sprintf("id:%d", id))
	}
	return nil
}

func (r *ObservationPostgreSQL) ListByProject(ctx context.Context, tx *gorm.DB, projectID uint, page repositories.PageRequest) ([]*models.Observation, string, error) {
	base := getDB(tx, r.db).WithContext(ctx).
		Model(&models.Observation{}).
		Where("project_id = ?", projectID)

	query, pageSize, err := applyCursorPage(base, models.KindObservation, page)
	if err != nil {
		return nil, "", err
	}

	var observations []*models.Observation
	if err := query.Find(&observations).Error; err != nil {
		return nil, "", fmt.Errorf("failed to list observations: %w", err)
	}

	observations, next := trimPage(models.KindObservation, observations, pageSize, func(o *models.Observation) uint { return o.ID })
	return observations, next, nil
}

func (r *ObservationPostgreSQL) AllByProject(ctx context.Context, tx *gorm.DB, projectID uint) ([]*models.Observation, error) {
	var observations []*models.Observation
	err := getDB(tx, r.db).WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&observations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load project's observations: %w", err)
	}
	return observations, nil
}

func (r *ObservationPostgreSQL) Descriptions(ctx context.Context, tx *gorm.DB, projectID uint, excludeID uint) ([]string, error) {
	query := getDB(tx, r.db).WithContext(ctx).
		Model(&models.Observation{}).
		Where("project_id = ?", projectID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var descriptions []string
	if err := query.Pluck("data_number_description", &descriptions).Error; err != nil {
		return nil, fmt.Errorf("failed to project observation descriptions: %w", err)
	}
	return descriptions, nil
}
