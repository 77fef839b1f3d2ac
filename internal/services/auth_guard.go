package services

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

type authGuard struct {
	credentials CredentialService
	logger      *slog.Logger
	now         func() time.Time
}

func NewAuthGuard(credentials CredentialService, logger *slog.Logger) AuthGuard {
	return &authGuard{
		credentials: credentials,
		logger:      logger,
		now:         time.Now,
	}
}

// Authorize implements the single authorization path every owner-scoped
// operation goes through.
//
// Decision order matters: an ownership mismatch must surface as
// ErrOwnershipDenied before any secret comparison, so a valid login against
// someone else's resource is Forbidden rather than Unauthenticated.
func (g *authGuard) Authorize(ctx context.Context, repo repositories.Repository, header string, expectedOwnerID uint, credential *models.Credential, useResetCode bool) error {
	if header == "" {
		return ErrUnauthenticated
	}

	claimedID, secret, err := parseCredentialHeader(header)
	if err != nil {
		return err
	}

	if expectedOwnerID != 0 && claimedID != expectedOwnerID {
		return ErrOwnershipDenied
	}

	if credential == nil {
		credential, err = g.credentials.Fetch(ctx, repo, claimedID)
		if err != nil {
			return err
		}
	}

	if useResetCode {
		if !g.credentials.VerifyResetCode(credential, secret, g.now()) {
			return ErrUnauthenticated
		}
		return nil
	}

	if !g.credentials.VerifyPassword(credential, secret) {
		return ErrUnauthenticated
	}
	return nil
}

// parseCredentialHeader decodes base64(id:secret), tolerating a "Basic "
// scheme prefix.
func parseCredentialHeader(header string) (uint, string, error) {
	encoded := strings.TrimSpace(header)
	if after, ok := strings.CutPrefix(encoded, "Basic "); ok {
		encoded = strings.TrimSpace(after)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return 0, "", ErrMalformedCredentials
	}

	id, secret, found := strings.Cut(string(raw), ":")
	if !found {
		return 0, "", ErrMalformedCredentials
	}

	ownerID, err := strconv.ParseUint(id, 10, 32)
	if err != nil || ownerID == 0 {
		return 0, "", ErrMalformedCredentials
	}

	return uint(ownerID), secret, nil
}
