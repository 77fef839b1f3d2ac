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

type projectService struct {
	repo      repositories.Repository
	auth      AuthGuard
	cascade   *cascadeDeleter
	validator *validator.Validator
	prober    storage.Prober
	events    events.EventPublisher
	logger    *slog.Logger
}

func NewProjectService(
	repo repositories.Repository,
	auth AuthGuard,
	blobs storage.BlobStore,
	prober storage.Prober,
	v *validator.Validator,
	publisher events.EventPublisher,
	logger *slog.Logger,
) ProjectService {
	return &projectService{
		repo:      repo,
		auth:      auth,
		cascade:   newCascadeDeleter(blobs, logger),
		validator: v,
		prober:    prober,
		events:    publisher,
		logger:    logger,
	}
}

// Create adds a project under the teacher named in the body. The caller
// must authenticate as that teacher, the teacher must exist inside the
// creating transaction, and the aggregate counter always starts at zero no
// matter what the client sent.
func (s *projectService) Create(ctx context.Context, body map[string]any, authHeader string) (*models.Project, error) {
	if errs := s.validator.ValidateProperties(body, validator.ProjectCreateProps); len(errs) > 0 {
		return nil, errs
	}

	var req ProjectCreateRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, err
	}
	if errs := s.validator.Validate(&req); len(errs) > 0 {
		return nil, errs
	}

	if err := s.auth.Authorize(ctx, s.repo, authHeader, req.TeacherID, nil, false); err != nil {
		return nil, err
	}

	project := &models.Project{
		TeacherID: req.TeacherID,
		Name:      req.Name,
		DataNumber: models.DataNumber{
			Name:         req.DataNumber.Name,
			MustBeUnique: req.DataNumber.MustBeUnique,
			Number:       0,
		},
	}
	if req.DescriptionText != nil {
		project.DescriptionText = *req.DescriptionText
	}
	if req.DescriptionImg != nil {
		if err := probeImageURL(ctx, s.prober, req.DescriptionImg.URL); err != nil {
			return nil, err
		}
		project.DescriptionImg = models.Image{
			Title:   req.DescriptionImg.Title,
			URL:     req.DescriptionImg.URL,
			AltText: req.DescriptionImg.AltText,
		}
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		exists, err := txRepo.Teacher().Exists(ctx, nil, req.TeacherID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		if !exists {
			return ErrTeacherNotFound
		}
		if err := txRepo.Project().Create(ctx, nil, project); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.injectLinks(project)
	publishEvent(ctx, s.events, s.logger, events.ProjectCreated, map[string]any{
		"id": project.ID, "teacher_id": project.TeacherID, "name": project.Name,
	})
	s.logger.Info("Created project", "project_id", project.ID, "teacher_id", project.TeacherID)
	return project, nil
}

func (s *projectService) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.fetch(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	s.injectLinks(project)
	return project, nil
}

func (s *projectService) List(ctx context.Context, page repositories.PageRequest) (*ProjectListResponse, error) {
	projects, cursor, err := s.repo.Project().List(ctx, nil, page)
	if err != nil {
		if repositories.IsInvalidCursorError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	for _, project := range projects {
		s.injectLinks(project)
	}
	return &ProjectListResponse{Projects: projects, Cursor: cursor}, nil
}

// Update modifies name, description text or description image. teacher_id
// and data_number are immutable here; the schema rejects them up front and
// the aggregate maintainer alone moves data_number.number.
func (s *projectService) Update(ctx context.Context, id uint, body map[string]any, authHeader string) (*models.Project, error) {
	if errs := s.validator.ValidateProperties(body, validator.ProjectUpdateProps); len(errs) > 0 {
		return nil, errs
	}

	var req ProjectUpdateRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, err
	}
	if errs := s.validator.Validate(&req); len(errs) > 0 {
		return nil, errs
	}

	project, err := s.fetch(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(ctx, s.repo, authHeader, project.TeacherID, nil, false); err != nil {
		return nil, err
	}

	oldImage := project.DescriptionImg
	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.DescriptionText != nil {
		project.DescriptionText = *req.DescriptionText
	}
	if req.DescriptionImg != nil {
		if req.DescriptionImg.URL != oldImage.URL {
			if err := probeImageURL(ctx, s.prober, req.DescriptionImg.URL); err != nil {
				return nil, err
			}
		}
		project.DescriptionImg = models.Image{
			Title:   req.DescriptionImg.Title,
			URL:     req.DescriptionImg.URL,
			AltText: req.DescriptionImg.AltText,
		}
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if project.DescriptionImg.URL != oldImage.URL {
			if err := s.cascade.deleteBlob(ctx, oldImage.URL); err != nil {
				return err
			}
		}
		if err := txRepo.Project().Update(ctx, nil, project); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.injectLinks(project)
	publishEvent(ctx, s.events, s.logger, events.ProjectUpdated, map[string]any{"id": project.ID})
	return project, nil
}

// Delete removes the project, its observations and their image blobs in
// one transaction.
func (s *projectService) Delete(ctx context.Context, id uint, authHeader string) error {
	project, err := s.fetch(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if err := s.auth.Authorize(ctx, s.repo, authHeader, project.TeacherID, nil, false); err != nil {
		return err
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := s.cascade.deleteObservationsOfProject(ctx, txRepo, id); err != nil {
			return err
		}
		if err := s.cascade.deleteProjectImage(ctx, project); err != nil {
			return err
		}
		if err := txRepo.Project().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	publishEvent(ctx, s.events, s.logger, events.ProjectDeleted, map[string]any{"id": id, "teacher_id": project.TeacherID})
	s.logger.Info("Deleted project", "project_id", id)
	return nil
}

func (s *projectService) fetch(ctx context.Context, repo repositories.Repository, id uint) (*models.Project, error) {
	project, err := repo.Project().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return project, nil
}

func (s *projectService) injectLinks(project *models.Project) {
	descriptor, _ := models.DescriptorFor(models.KindProject)
	_ = descriptor.InjectLinks(project)
}
