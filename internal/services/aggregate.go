package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

// aggregateMaintainer keeps project.data_number.number consistent with the
// project's observations. Every method runs inside the caller's transaction
// (repo must be transaction-bound) and reads the sibling descriptions it
// needs itself, because the store fixes the transaction's read set at the
// first read.
//
// Concurrent observation mutations against one project are not serialized
// beyond the store's native isolation; the read-modify-write here carries
// the usual lost-update exposure on simultaneous commits.
type aggregateMaintainer struct {
	logger *slog.Logger
}

func newAggregateMaintainer(logger *slog.Logger) *aggregateMaintainer {
	return &aggregateMaintainer{logger: logger}
}

// onCreate folds a new observation into the counter. With uniqueness on,
// the counter only moves when no other observation already holds the
// description; otherwise the new quantity is added directly.
func (m *aggregateMaintainer) onCreate(ctx context.Context, repo repositories.Repository, project *models.Project, observation *models.Observation) error {
	current := project.DataNumber.Number
	next := current

	if project.DataNumber.MustBeUnique {
		others, err := repo.Observation().Descriptions(ctx, nil, project.ID, observation.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		if !containsDescription(others, observation.DataNumber.Description) {
			next = current + 1
		}
	} else {
		next = current + observation.DataNumber.Quantity
	}

	return m.persist(ctx, repo, project, current, next)
}

// onUpdate reconciles the counter after an observation's data_number
// changed. Identical values are a no-op; with uniqueness on, an unchanged
// description needs no dedup recheck.
func (m *aggregateMaintainer) onUpdate(ctx context.Context, repo repositories.Repository, project *models.Project, old models.ObservationDataNumber, observation *models.Observation) error {
	updated := observation.DataNumber
	if old == updated {
		return nil
	}

	current := project.DataNumber.Number
	next := current

	if project.DataNumber.MustBeUnique {
		if old.Description == updated.Description {
			return nil
		}
		others, err := repo.Observation().Descriptions(ctx, nil, project.ID, observation.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		// Old contribution leaves only when this was its last holder;
		// the new one lands only when nothing else holds it yet.
		if !containsDescription(others, old.Description) {
			next--
		}
		if !containsDescription(others, updated.Description) {
			next++
		}
	} else {
		next = current - old.Quantity + updated.Quantity
	}

	return m.persist(ctx, repo, project, current, next)
}

// onDelete is symmetric to onCreate, with the deleted observation excluded
// from the sibling read.
func (m *aggregateMaintainer) onDelete(ctx context.Context, repo repositories.Repository, project *models.Project, observation *models.Observation) error {
	current := project.DataNumber.Number
	next := current

	if project.DataNumber.MustBeUnique {
		others, err := repo.Observation().Descriptions(ctx, nil, project.ID, observation.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		if !containsDescription(others, observation.DataNumber.Description) {
			next = current - 1
		}
	} else {
		next = current - observation.DataNumber.Quantity
	}

	return m.persist(ctx, repo, project, current, next)
}

func (m *aggregateMaintainer) persist(ctx context.Context, repo repositories.Repository, project *models.Project, current, next int) error {
	if next == current {
		return nil
	}
	if err := repo.Project().UpdateDataNumber(ctx, nil, project.ID, next); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	project.DataNumber.Number = next
	m.logger.Debug("Updated project aggregate", "project_id", project.ID, "number", next)
	return nil
}

// Dedup is by description string, not content hash.
func containsDescription(descriptions []string, candidate string) bool {
	for _, d := range descriptions {
		if d == candidate {
			return true
		}
	}
	return false
}
