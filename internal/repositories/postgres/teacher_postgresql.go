package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/wildwatch-edu/observation-service/internal/cache"
	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

type TeacherPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager

	// txBound marks a repo built by WithTransaction, whose db handle is
	// already a transaction even when callers pass tx == nil.
	txBound bool
}

func NewTeacherPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.TeacherRepository {
	return &TeacherPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func newTxTeacherPostgreSQL(tx *gorm.DB, cacheManager *cache.CacheManager) repositories.TeacherRepository {
	return &TeacherPostgreSQL{
		db:           tx,
		cacheManager: cacheManager,
		txBound:      true,
	}
}

func (r *TeacherPostgreSQL) Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	if err := getDB(tx, r.db).WithContext(ctx).Create(teacher).Error; err != nil {
		return fmt.Errorf("failed to create teacher: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, r.cacheManager.Teacher, "list:*")
	return nil
}

func (r *TeacherPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := getDB(tx, r.db).WithContext(ctx).First(&teacher, id).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *TeacherPostgreSQL) Update(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	if err := getDB(tx, r.db).WithContext(ctx).Save(teacher).Error; err != nil {
		return fmt.Errorf("failed to update teacher: %w", err)
	}
	cache.InvalidateTeacherCache(ctx, r.cacheManager, teacher.ID)
	return nil
}

func (r *TeacherPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := getDB(tx, r.db).WithContext(ctx).Delete(&models.Teacher{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete teacher: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.InvalidateTeacherCache(ctx, r.cacheManager, id)
	return nil
}

func (r *TeacherPostgreSQL) List(ctx context.Context, tx *gorm.DB, page repositories.PageRequest) ([]*models.Teacher, string, error) {
	query, pageSize, err := applyCursorPage(getDB(tx, r.db).WithContext(ctx).Model(&models.Teacher{}), models.KindTeacher, page)
	if err != nil {
		return nil, "", err
	}

	var teachers []*models.Teacher
	if err := query.Find(&teachers).Error; err != nil {
		return nil, "", fmt.Errorf("failed to list teachers: %w", err)
	}

	teachers, next := trimPage(models.KindTeacher, teachers, pageSize, func(t *models.Teacher) uint { return t.ID })
	return teachers, next, nil
}

func (r *TeacherPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	// Inside a transaction the check must hit the store, not the cache:
	// the transaction's read set is fixed at the first read. The repo is
	// transactional either through the tx parameter or through txBound.
	if tx == nil && !r.txBound {
		var cached bool
		if err := r.cacheManager.Exists.Get(ctx, fmt.Sprintf("teacher:%d", id), &cached); err == nil && cached {
			return true, nil
		}
	}

	var count int64
	if err := getDB(tx, r.db).WithContext(ctx).Model(&models.Teacher{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check teacher existence: %w", err)
	}

	if tx == nil && !r.txBound && count > 0 {
		_ = r.cacheManager.Exists.Set(ctx, fmt.Sprintf("teacher:%d", id), true, cache.ExistsCacheConfig.TTL)
	}
	return count > 0, nil
}
