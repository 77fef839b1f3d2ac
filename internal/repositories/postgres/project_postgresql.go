package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/wildwatch-edu/observation-service/internal/cache"
	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

type ProjectPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager

	// txBound marks a repo built by WithTransaction, whose db handle is
	// already a transaction even when callers pass tx == nil.
	txBound bool
}

func NewProjectPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ProjectRepository {
	return &ProjectPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func newTxProjectPostgreSQL(tx *gorm.DB, cacheManager *cache.CacheManager) repositories.ProjectRepository {
	return &ProjectPostgreSQL{
		db:           tx,
		cacheManager: cacheManager,
		txBound:      true,
	}
}

func (r *ProjectPostgreSQL) Create(ctx context.Context, tx *gorm.DB, project *models.Project) error {
	if err := getDB(tx, r.db).WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, r.cacheManager.Project, "list:*")
	return nil
}

func (r *ProjectPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	if err := getDB(tx, r.db).WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectPostgreSQL) Update(ctx context.Context, tx *gorm.DB, project *models.Project) error {
	if err := getDB(tx, r.db).WithContext(ctx).Save(project).Error; err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	cache.InvalidateProjectCache(ctx, r.cacheManager, project.ID)
	return nil
}

func (r *ProjectPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := getDB(tx, r.db).WithContext(ctx).Delete(&models.Project{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateProjectCache(ctx, r.cacheManager, id)
	return nil
}

func (r *ProjectPostgreSQL) DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := getDB(tx, r.db).WithContext(ctx).Delete(&models.Project{}, ids).Error; err != nil {
		return fmt.Errorf("failed to batch delete projects: %w", err)
	}
	for _, id := range ids {
		cache.InvalidateProjectCache(ctx, r.cacheManager, id)
	}
	return nil
}

func (r *ProjectPostgreSQL) List(ctx context.Context, tx *gorm.DB, page repositories.PageRequest) ([]*models.Project, string, error) {
	query, pageSize, err := applyCursorPage(getDB(tx, r.db).WithContext(ctx).Model(&models.Project{}), models.KindProject, page)
	if err != nil {
		return nil, "", err
	}

	var projects []*models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, "", fmt.Errorf("failed to list projects: %w", err)
	}

	projects, next := trimPage(models.KindProject, projects, pageSize, func(p *models.Project) uint { return p.ID })
	return projects, next, nil
}

func (r *ProjectPostgreSQL) AllByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Project, error) {
	var projects []*models.Project
	err := getDB(tx, r.db).WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("id ASC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load teacher's projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	// Same transactional guard as TeacherPostgreSQL.Exists.
	if tx == nil && !r.txBound {
		var cached bool
		if err := r.cacheManager.Exists.Get(ctx, fmt.Sprintf("project:%d", id), &cached); err == nil && cached {
			return true, nil
		}
	}

	var count int64
	if err := getDB(tx, r.db).WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check project existence: %w", err)
	}

	if tx == nil && !r.txBound && count > 0 {
		_ = r.cacheManager.Exists.Set(ctx, fmt.Sprintf("project:%d", id), true, cache.ExistsCacheConfig.TTL)
	}
	return count > 0, nil
}

func (r *ProjectPostgreSQL) UpdateDataNumber(ctx context.Context, tx *gorm.DB, projectID uint, number int) error {
	result := getDB(tx, r.db).WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Update("data_number_number", number)
	if result.Error != nil {
		return fmt.Errorf("failed to update project data_number: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateProjectCache(ctx, r.cacheManager, projectID)
	return nil
}
