package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wildwatch-edu/observation-service/internal/events"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
	"github.com/wildwatch-edu/observation-service/internal/secrets"
	"github.com/wildwatch-edu/observation-service/internal/storage"
	"github.com/wildwatch-edu/observation-service/internal/validator"
)

// ServiceManagerConfig carries the collaborators the services depend on.
type ServiceManagerConfig struct {
	Blobs  storage.BlobStore
	Prober storage.Prober
	Events events.EventPublisher

	// DefaultProfilePhoto is assigned to teachers created without one.
	DefaultProfilePhoto string
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	repo      repositories.Repository
	box       *secrets.Box
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	teacherService     TeacherService
	projectService     ProjectService
	observationService ObservationService
	credentialService  CredentialService
	authGuard          AuthGuard
	exportService      ExportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, box *secrets.Box, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		box:       box,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// NewDefaultServiceManager wires an in-memory blob store and a channel
// event publisher, suitable for local development and tests.
func NewDefaultServiceManager(repo repositories.Repository, box *secrets.Box, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	memory := storage.NewMemoryStore()
	return NewServiceManager(repo, box, logger, validator, ServiceManagerConfig{
		Blobs:  memory,
		Prober: memory,
		Events: events.NewChannelPublisher(logger),
	})
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.credentialService = NewCredentialService(sm.repo, sm.box, sm.logger)
	sm.authGuard = NewAuthGuard(sm.credentialService, sm.logger)

	sm.teacherService = NewTeacherService(
		sm.repo, sm.credentialService, sm.authGuard,
		sm.config.Blobs, sm.config.Prober,
		sm.validator, sm.config.Events, sm.logger,
		sm.config.DefaultProfilePhoto,
	)
	sm.projectService = NewProjectService(
		sm.repo, sm.authGuard,
		sm.config.Blobs, sm.config.Prober,
		sm.validator, sm.config.Events, sm.logger,
	)
	sm.observationService = NewObservationService(
		sm.repo, sm.authGuard,
		sm.config.Blobs, sm.config.Prober,
		sm.validator, sm.config.Events, sm.logger,
	)
	sm.exportService = NewExportService(sm.repo, sm.authGuard, sm.logger)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) Teacher() TeacherService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.teacherService
}

func (sm *serviceManager) Project() ProjectService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.projectService
}

func (sm *serviceManager) Observation() ObservationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.observationService
}

func (sm *serviceManager) Credential() CredentialService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.credentialService
}

func (sm *serviceManager) Auth() AuthGuard {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.authGuard
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.exportService
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.shutdown {
		return fmt.Errorf("service manager not running")
	}
	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.config.Events != nil {
		if err := sm.config.Events.Close(); err != nil {
			sm.logger.Warn("Failed to close event publisher", "error", err)
		}
	}
	if err := sm.repo.Close(); err != nil {
		sm.logger.Warn("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	return nil
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}
