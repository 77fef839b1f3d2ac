package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/wildwatch-edu/observation-service/internal/cache"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface.
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	teacher     repositories.TeacherRepository
	project     repositories.ProjectRepository
	observation repositories.ObservationRepository
	credential  repositories.CredentialRepository
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates the repository aggregate with all
// sub-repositories sharing one cache manager.
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}

	repo.teacher = NewTeacherPostgreSQL(config.DB, cacheManager)
	repo.project = NewProjectPostgreSQL(config.DB, cacheManager)
	repo.observation = NewObservationPostgreSQL(config.DB, cacheManager)
	repo.credential = NewCredentialPostgreSQL(config.DB)

	return repo
}

func (r *PostgreSQLRepository) Teacher() repositories.TeacherRepository {
	return r.teacher
}

func (r *PostgreSQLRepository) Project() repositories.ProjectRepository {
	return r.project
}

func (r *PostgreSQLRepository) Observation() repositories.ObservationRepository {
	return r.observation
}

func (r *PostgreSQLRepository) Credential() repositories.CredentialRepository {
	return r.credential
}

// WithTransaction executes fn within a database transaction. The callback
// receives a repository aggregate bound to that transaction; returning an
// error rolls everything back.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}

		txRepo.teacher = newTxTeacherPostgreSQL(tx, r.cacheManager)
		txRepo.project = newTxProjectPostgreSQL(tx, r.cacheManager)
		txRepo.observation = NewObservationPostgreSQL(tx, r.cacheManager)
		txRepo.credential = NewCredentialPostgreSQL(tx)

		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections.
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections.
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// repositoryManager implements repositories.RepositoryManager.
type repositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &repositoryManager{config: config}
}

func (m *repositoryManager) Initialize() error {
	if m.config.DB == nil {
		return fmt.Errorf("repository manager: nil database handle")
	}
	m.repo = NewPostgreSQLRepository(m.config)
	return nil
}

func (m *repositoryManager) GetRepository() repositories.Repository {
	return m.repo
}

func (m *repositoryManager) HealthCheck(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("repository manager: not initialized")
	}
	return m.repo.Ping(ctx)
}

func (m *repositoryManager) Shutdown(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	return m.repo.Close()
}
