package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
	"github.com/wildwatch-edu/observation-service/internal/secrets"
)

// resetCodeTTL bounds how long an issued reset code stays usable.
const resetCodeTTL = 30 * time.Minute

const (
	sqQuestion1 = "question_1"
	sqQuestion2 = "question_2"
	sqAnswer1   = "answer_1"
	sqAnswer2   = "answer_2"
)

type credentialService struct {
	repo   repositories.Repository
	box    *secrets.Box
	logger *slog.Logger
}

func NewCredentialService(repo repositories.Repository, box *secrets.Box, logger *slog.Logger) CredentialService {
	return &credentialService{
		repo:   repo,
		box:    box,
		logger: logger,
	}
}

// Create encrypts the password and secret questions and persists them linked
// to the teacher. Each field is sealed individually so later partial updates
// never touch sibling ciphertexts.
func (s *credentialService) Create(ctx context.Context, repo repositories.Repository, teacherID uint, password string, questions models.SecretQuestions) error {
	sealedPassword, err := s.box.Seal(password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	sealedQuestions, err := s.sealQuestions(questions)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	credential := &models.Credential{
		TeacherID:       teacherID,
		Password:        sealedPassword,
		SecretQuestions: sealedQuestions,
	}

	if err := repo.Credential().Create(ctx, nil, credential); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}

func (s *credentialService) Fetch(ctx context.Context, repo repositories.Repository, teacherID uint) (*models.Credential, error) {
	credential, err := repo.Credential().GetByTeacher(ctx, nil, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return credential, nil
}

// IssueResetChallenge generates a fresh random code with a 30-minute expiry,
// overwriting any previous code, and returns the two secret questions in
// plaintext together with the plaintext code. One active code per teacher.
func (s *credentialService) IssueResetChallenge(ctx context.Context, teacherID uint) (*ResetChallengeResponse, error) {
	code := uuid.NewString()
	expires := time.Now().UTC().Add(resetCodeTTL)

	sealedCode, err := s.box.Seal(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	var challenge *ResetChallengeResponse
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		credential, err := s.Fetch(ctx, txRepo, teacherID)
		if err != nil {
			return err
		}

		questions, err := s.openQuestions(credential)
		if err != nil {
			return err
		}

		credential.ResetCode = models.ResetCode{Code: sealedCode, Expires: &expires}
		if err := txRepo.Credential().Update(ctx, nil, credential); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}

		challenge = &ResetChallengeResponse{
			Question1: questions.Question1,
			Question2: questions.Question2,
			ResetCode: code,
			Expires:   expires,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Issued reset challenge", "teacher_id", teacherID, "expires", expires)
	return challenge, nil
}

func (s *credentialService) VerifyPassword(credential *models.Credential, candidate string) bool {
	return s.box.Compare(credential.Password, candidate)
}

// VerifyResetCode checks the candidate against the stored code and requires
// now to fall inside the validity window.
func (s *credentialService) VerifyResetCode(credential *models.Credential, candidate string, now time.Time) bool {
	if credential.ResetCode.Code == "" || credential.ResetCode.Expires == nil {
		return false
	}
	if !now.Before(*credential.ResetCode.Expires) {
		return false
	}
	return s.box.Compare(credential.ResetCode.Code, candidate)
}

// VerifySecretQuestions requires an exact match on both question and answer
// pairs, compared in constant time after decryption.
func (s *credentialService) VerifySecretQuestions(credential *models.Credential, candidate models.SecretQuestions) bool {
	stored, err := s.openQuestions(credential)
	if err != nil {
		return false
	}

	ok := secrets.ConstantTimeEquals(stored.Question1, candidate.Question1)
	ok = secrets.ConstantTimeEquals(stored.Question2, candidate.Question2) && ok
	ok = secrets.ConstantTimeEquals(stored.Answer1, candidate.Answer1) && ok
	ok = secrets.ConstantTimeEquals(stored.Answer2, candidate.Answer2) && ok
	return ok
}

func (s *credentialService) UpdatePassword(ctx context.Context, repo repositories.Repository, credential *models.Credential, newPassword string) error {
	sealed, err := s.box.Seal(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	credential.Password = sealed

	if err := repo.Credential().Update(ctx, nil, credential); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}

func (s *credentialService) UpdateSecretQuestions(ctx context.Context, repo repositories.Repository, credential *models.Credential, questions models.SecretQuestions) error {
	sealed, err := s.sealQuestions(questions)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	credential.SecretQuestions = sealed

	if err := repo.Credential().Update(ctx, nil, credential); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}

// ClearResetCode drops the active code; consuming a code is single-use.
func (s *credentialService) ClearResetCode(ctx context.Context, repo repositories.Repository, credential *models.Credential) error {
	credential.ResetCode = models.ResetCode{}

	if err := repo.Credential().Update(ctx, nil, credential); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}

func (s *credentialService) Delete(ctx context.Context, repo repositories.Repository, teacherID uint) error {
	err := repo.Credential().DeleteByTeacher(ctx, nil, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCredentialNotFound
		}
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}

// sealQuestions encrypts each question/answer field individually and packs
// the ciphertexts into the stored JSON document.
func (s *credentialService) sealQuestions(questions models.SecretQuestions) (datatypes.JSON, error) {
	fields := map[string]string{
		sqQuestion1: questions.Question1,
		sqQuestion2: questions.Question2,
		sqAnswer1:   questions.Answer1,
		sqAnswer2:   questions.Answer2,
	}

	sealed := make(map[string]string, len(fields))
	for key, value := range fields {
		ciphertext, err := s.box.Seal(value)
		if err != nil {
			return nil, err
		}
		sealed[key] = ciphertext
	}

	raw, err := json.Marshal(sealed)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (s *credentialService) openQuestions(credential *models.Credential) (*models.SecretQuestions, error) {
	var sealed map[string]string
	if err := json.Unmarshal(credential.SecretQuestions, &sealed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	opened := make(map[string]string, len(sealed))
	for key, ciphertext := range sealed {
		plaintext, err := s.box.Open(ciphertext)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		opened[key] = plaintext
	}

	return &models.SecretQuestions{
		Question1: opened[sqQuestion1],
		Question2: opened[sqQuestion2],
		Answer1:   opened[sqAnswer1],
		Answer2:   opened[sqAnswer2],
	}, nil
}
