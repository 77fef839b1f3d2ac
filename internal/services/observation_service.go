package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wildwatch-edu/observation-service/internal/events"
	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
	"github.com/wildwatch-edu/observation-service/internal/storage"
	"github.com/wildwatch-edu/observation-service/internal/validator"
)

type observationService struct {
	repo      repositories.Repository
	auth      AuthGuard
	aggregate *aggregateMaintainer
	cascade   *cascadeDeleter
	validator *validator.Validator
	prober    storage.Prober
	events    events.EventPublisher
	logger    *slog.Logger
}

func NewObservationService(
	repo repositories.Repository,
	auth AuthGuard,
	blobs storage.BlobStore,
	prober storage.Prober,
	v *validator.Validator,
	publisher events.EventPublisher,
	logger *slog.Logger,
) ObservationService {
	return &observationService{
		repo:      repo,
		auth:      auth,
		aggregate: newAggregateMaintainer(logger),
		cascade:   newCascadeDeleter(blobs, logger),
		validator: v,
		prober:    prober,
		events:    publisher,
		logger:    logger,
	}
}

// Create adds an observation under the project. The ancestor is fetched in
// the same transaction that creates the record and moves the aggregate, so
// a concurrently deleted project fails the whole operation.
func (s *observationService) Create(ctx context.Context, projectID uint, body map[string]any, authHeader string) (*models.Observation, error) {
	if errs := s.validator.ValidateProperties(body, validator.ObservationCreateProps); len(errs) > 0 {
		return nil, errs
	}

	var req ObservationCreateRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, err
	}
	if errs := s.validator.Validate(&req); len(errs) > 0 {
		return nil, errs
	}

	observation := &models.Observation{
		ProjectID: projectID,
		Date:      req.Date,
		DataNumber: models.ObservationDataNumber{
			Description: req.DataNumber.Description,
			Quantity:    req.DataNumber.Quantity,
		},
	}
	if req.DataDescription != nil {
		observation.DataDescription = *req.DataDescription
	}
	if req.DataImage != nil {
		if err := probeImageURL(ctx, s.prober, req.DataImage.URL); err != nil {
			return nil, err
		}
		observation.DataImage = models.Image{
			Title:   req.DataImage.Title,
			URL:     req.DataImage.URL,
			AltText: req.DataImage.AltText,
		}
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		project, err := s.fetchProject(ctx, txRepo, projectID)
		if err != nil {
			return err
		}
		if err := s.auth.Authorize(ctx, txRepo, authHeader, project.TeacherID, nil, false); err != nil {
			return err
		}
		if err := txRepo.Observation().Create(ctx, nil, observation); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		return s.aggregate.onCreate(ctx, txRepo, project, observation)
	})
	if err != nil {
		return nil, err
	}

	s.injectLinks(observation)
	publishEvent(ctx, s.events, s.logger, events.ObservationCreated, map[string]any{
		"id": observation.ID, "project_id": projectID,
	})
	s.logger.Info("Created observation", "observation_id", observation.ID, "project_id", projectID)
	return observation, nil
}

func (s *observationService) GetByID(ctx context.Context, projectID, id uint) (*models.Observation, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	observation, err := s.fetchScoped(ctx, s.repo, projectID, id)
	if err != nil {
		return nil, err
	}

	s.injectLinks(observation)
	return observation, nil
}

func (s *observationService) ListByProject(ctx context.Context, projectID uint, page repositories.PageRequest) (*ObservationListResponse, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}

	observations, cursor, err := s.repo.Observation().ListByProject(ctx, nil, projectID, page)
	if err != nil {
		if repositories.IsInvalidCursorError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	for _, observation := range observations {
		s.injectLinks(observation)
	}
	return &ObservationListResponse{Observations: observations, Cursor: cursor}, nil
}

// Update rewrites the observation and reconciles the project aggregate from
// the old and new data_number in the same transaction.
func (s *observationService) Update(ctx context.Context, projectID, id uint, body map[string]any, authHeader string) (*models.Observation, error) {
	if errs := s.validator.ValidateProperties(body, validator.ObservationUpdateProps); len(errs) > 0 {
		return nil, errs
	}

	var req ObservationUpdateRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, err
	}
	if errs := s.validator.Validate(&req); len(errs) > 0 {
		return nil, errs
	}

	// The image URL is validated before the transaction opens, so a bad
	// reference leaves the record and its current blob untouched.
	if req.DataImage != nil {
		if err := probeImageURL(ctx, s.prober, req.DataImage.URL); err != nil {
			return nil, err
		}
	}

	var observation *models.Observation
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		project, err := s.fetchProject(ctx, txRepo, projectID)
		if err != nil {
			return err
		}
		if err := s.auth.Authorize(ctx, txRepo, authHeader, project.TeacherID, nil, false); err != nil {
			return err
		}

		observation, err = s.fetchScoped(ctx, txRepo, projectID, id)
		if err != nil {
			return err
		}

		oldDataNumber := observation.DataNumber
		oldImageURL := observation.DataImage.URL

		if req.Date != nil {
			observation.Date = *req.Date
		}
		if req.DataDescription != nil {
			observation.DataDescription = *req.DataDescription
		}
		if req.DataNumber != nil {
			observation.DataNumber = models.ObservationDataNumber{
				Description: req.DataNumber.Description,
				Quantity:    req.DataNumber.Quantity,
			}
		}
		if req.DataImage != nil {
			observation.DataImage = models.Image{
				Title:   req.DataImage.Title,
				URL:     req.DataImage.URL,
				AltText: req.DataImage.AltText,
			}
			if oldImageURL != observation.DataImage.URL {
				if err := s.cascade.deleteBlob(ctx, oldImageURL); err != nil {
					return err
				}
			}
		}

		if err := txRepo.Observation().Update(ctx, nil, observation); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		return s.aggregate.onUpdate(ctx, txRepo, project, oldDataNumber, observation)
	})
	if err != nil {
		return nil, err
	}

	s.injectLinks(observation)
	publishEvent(ctx, s.events, s.logger, events.ObservationUpdated, map[string]any{
		"id": observation.ID, "project_id": projectID,
	})
	return observation, nil
}

// Delete removes the observation, its image blob, and folds its
// contribution out of the project aggregate.
func (s *observationService) Delete(ctx context.Context, projectID, id uint, authHeader string) error {
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		project, err := s.fetchProject(ctx, txRepo, projectID)
		if err != nil {
			return err
		}
		if err := s.auth.Authorize(ctx, txRepo, authHeader, project.TeacherID, nil, false); err != nil {
			return err
		}

		observation, err := s.fetchScoped(ctx, txRepo, projectID, id)
		if err != nil {
			return err
		}

		if err := s.cascade.deleteObservationImage(ctx, observation); err != nil {
			return err
		}
		if err := txRepo.Observation().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		return s.aggregate.onDelete(ctx, txRepo, project, observation)
	})
	if err != nil {
		return err
	}

	publishEvent(ctx, s.events, s.logger, events.ObservationDeleted, map[string]any{
		"id": id, "project_id": projectID,
	})
	s.logger.Info("Deleted observation", "observation_id", id, "project_id", projectID)
	return nil
}

// ensureProject guards the read paths. The cached existence check is fine
// here: reads do not write anything that could outlive a stale answer.
func (s *observationService) ensureProject(ctx context.Context, projectID uint) error {
	exists, err := s.repo.Project().Exists(ctx, nil, projectID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	if !exists {
		return ErrProjectNotFound
	}
	return nil
}

func (s *observationService) fetchProject(ctx context.Context, repo repositories.Repository, projectID uint) (*models.Project, error) {
	project, err := repo.Project().GetByID(ctx, nil, projectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return project, nil
}

// fetchScoped resolves the observation and enforces the ancestor scope: an
// id that exists under a different project is still a miss here.
func (s *observationService) fetchScoped(ctx context.Context, repo repositories.Repository, projectID, id uint) (*models.Observation, error) {
	observation, err := repo.Observation().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrObservationNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	if observation.ProjectID != projectID {
		return nil, ErrObservationNotFound
	}
	return observation, nil
}

func (s *observationService) injectLinks(observation *models.Observation) {
	descriptor, _ := models.DescriptorFor(models.KindObservation)
	_ = descriptor.InjectLinks(observation)
}
