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

type teacherService struct {
	repo        repositories.Repository
	credentials CredentialService
	auth        AuthGuard
	cascade     *cascadeDeleter
	validator   *validator.Validator
	prober      storage.Prober
	events      events.EventPublisher
	logger      *slog.Logger

	defaultProfilePhoto string
}

func NewTeacherService(
	repo repositories.Repository,
	credentials CredentialService,
	auth AuthGuard,
	blobs storage.BlobStore,
	prober storage.Prober,
	v *validator.Validator,
	publisher events.EventPublisher,
	logger *slog.Logger,
	defaultProfilePhoto string,
) TeacherService {
	return &teacherService{
		repo:                repo,
		credentials:         credentials,
		auth:                auth,
		cascade:             newCascadeDeleter(blobs, logger),
		validator:           v,
		prober:              prober,
		events:              publisher,
		logger:              logger,
		defaultProfilePhoto: defaultProfilePhoto,
	}
}

// Create registers a teacher together with its credential record in one
// transaction. The password and secret questions never land on the teacher
// row; they move straight into the encrypted credential store.
func (s *teacherService) Create(ctx context.Context, body map[string]any) (*models.Teacher, error) {
	if errs := s.validator.ValidateProperties(body, validator.TeacherCreateProps); len(errs) > 0 {
		return nil, errs
	}

	var req TeacherCreateRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, err
	}
	if errs := s.validator.Validate(&req); len(errs) > 0 {
		return nil, errs
	}

	profilePhoto := s.defaultProfilePhoto
	if req.ProfilePhoto != nil && *req.ProfilePhoto != "" {
		if err := probeImageURL(ctx, s.prober, *req.ProfilePhoto); err != nil {
			return nil, err
		}
		profilePhoto = *req.ProfilePhoto
	}

	teacher := &models.Teacher{
		Name:         req.Name,
		Email:        req.Email,
		School:       req.School,
		ProfilePhoto: profilePhoto,
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Teacher().Create(ctx, nil, teacher); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		return s.credentials.Create(ctx, txRepo, teacher.ID, req.Password, req.SecretQuestions)
	})
	if err != nil {
		return nil, err
	}

	s.injectLinks(teacher)
	publishEvent(ctx, s.events, s.logger, events.TeacherCreated, map[string]any{
		"id": teacher.ID, "name": teacher.Name, "school": teacher.School,
	})
	s.logger.Info("Created teacher", "teacher_id", teacher.ID)
	return teacher, nil
}

// GetByID is owner-scoped: teacher profiles include the email address, so
// reading one requires authenticating as that teacher.
func (s *teacherService) GetByID(ctx context.Context, id uint, authHeader string) (*models.Teacher, error) {
	teacher, err := s.fetch(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(ctx, s.repo, authHeader, id, nil, false); err != nil {
		return nil, err
	}

	s.injectLinks(teacher)
	return teacher, nil
}

func (s *teacherService) List(ctx context.Context, page repositories.PageRequest) (*TeacherListResponse, error) {
	teachers, cursor, err := s.repo.Teacher().List(ctx, nil, page)
	if err != nil {
		if repositories.IsInvalidCursorError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	for _, teacher := range teachers {
		s.injectLinks(teacher)
	}
	return &TeacherListResponse{Teachers: teachers, Cursor: cursor}, nil
}

func (s *teacherService) Update(ctx context.Context, id uint, body map[string]any, authHeader string) (*models.Teacher, error) {
	if errs := s.validator.ValidateProperties(body, validator.TeacherUpdateProps); len(errs) > 0 {
		return nil, errs
	}

	var req TeacherUpdateRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, err
	}
	if errs := s.validator.Validate(&req); len(errs) > 0 {
		return nil, errs
	}

	teacher, err := s.fetch(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Authorize(ctx, s.repo, authHeader, id, nil, false); err != nil {
		return nil, err
	}

	oldPhoto := teacher.ProfilePhoto
	if req.Name != nil {
		teacher.Name = *req.Name
	}
	if req.Email != nil {
		teacher.Email = *req.Email
	}
	if req.School != nil {
		teacher.School = *req.School
	}
	if req.ProfilePhoto != nil && *req.ProfilePhoto != oldPhoto {
		if err := probeImageURL(ctx, s.prober, *req.ProfilePhoto); err != nil {
			return nil, err
		}
		teacher.ProfilePhoto = *req.ProfilePhoto
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if teacher.ProfilePhoto != oldPhoto && oldPhoto != s.defaultProfilePhoto {
			if err := s.cascade.deleteBlob(ctx, oldPhoto); err != nil {
				return err
			}
		}
		if err := txRepo.Teacher().Update(ctx, nil, teacher); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.injectLinks(teacher)
	publishEvent(ctx, s.events, s.logger, events.TeacherUpdated, map[string]any{"id": teacher.ID})
	return teacher, nil
}

// Delete removes the teacher and everything underneath it: projects, their
// observations, image blobs, and the credential record. One transaction,
// fully or not at all.
func (s *teacherService) Delete(ctx context.Context, id uint, authHeader string) error {
	teacher, err := s.fetch(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if err := s.auth.Authorize(ctx, s.repo, authHeader, id, nil, false); err != nil {
		return err
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := s.cascade.deleteProjectsOfTeacher(ctx, txRepo, id); err != nil {
			return err
		}
		if teacher.ProfilePhoto != s.defaultProfilePhoto {
			if err := s.cascade.deleteBlob(ctx, teacher.ProfilePhoto); err != nil {
				return err
			}
		}
		if err := s.credentials.Delete(ctx, txRepo, id); err != nil {
			return err
		}
		if err := txRepo.Teacher().Delete(ctx, nil, id); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	publishEvent(ctx, s.events, s.logger, events.TeacherDeleted, map[string]any{"id": id})
	s.logger.Info("Deleted teacher", "teacher_id", id)
	return nil
}

// IssueResetChallenge starts the forgot-password flow. It deliberately
// requires no authentication; the response carries the secret questions and
// the fresh one-time code.
func (s *teacherService) IssueResetChallenge(ctx context.Context, teacherID uint) (*ResetChallengeResponse, error) {
	if _, err := s.fetch(ctx, s.repo, teacherID); err != nil {
		return nil, err
	}
	return s.credentials.IssueResetChallenge(ctx, teacherID)
}

// ResetPassword completes the flow. The Authorization header carries the
// reset code in place of the password; the body must answer both secret
// questions exactly. The code is consumed only when the whole reset
// commits; a rejected new password rolls the transaction back and leaves
// the code usable for another attempt.
func (s *teacherService) ResetPassword(ctx context.Context, teacherID uint, req *ResetPasswordRequest, authHeader string) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return errs
	}

	if _, err := s.fetch(ctx, s.repo, teacherID); err != nil {
		return err
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		credential, err := s.credentials.Fetch(ctx, txRepo, teacherID)
		if err != nil {
			return err
		}
		if err := s.auth.Authorize(ctx, txRepo, authHeader, teacherID, credential, true); err != nil {
			return err
		}
		if !s.credentials.VerifySecretQuestions(credential, req.SecretQuestions) {
			return ErrUnauthenticated
		}
		if s.credentials.VerifyPassword(credential, req.NewPassword) {
			return ErrPasswordReused
		}
		if err := s.credentials.UpdatePassword(ctx, txRepo, credential, req.NewPassword); err != nil {
			return err
		}
		return s.credentials.ClearResetCode(ctx, txRepo, credential)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Reset password", "teacher_id", teacherID)
	return nil
}

func (s *teacherService) fetch(ctx context.Context, repo repositories.Repository, id uint) (*models.Teacher, error) {
	teacher, err := repo.Teacher().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTeacherNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return teacher, nil
}

func (s *teacherService) injectLinks(teacher *models.Teacher) {
	descriptor, _ := models.DescriptorFor(models.KindTeacher)
	_ = descriptor.InjectLinks(teacher)
}
