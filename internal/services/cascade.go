package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
	"github.com/wildwatch-edu/observation-service/internal/storage"
)

// cascadeDeleter removes an entity's descendants ahead of the entity
// itself. Record deletes run inside the caller's transaction; blob deletes
// go to the image store first so a storage failure aborts before any
// record is touched. A blob the store no longer has is treated as already
// deleted.
type cascadeDeleter struct {
	blobs  storage.BlobStore
	logger *slog.Logger
}

func newCascadeDeleter(blobs storage.BlobStore, logger *slog.Logger) *cascadeDeleter {
	return &cascadeDeleter{blobs: blobs, logger: logger}
}

// deleteObservationsOfProject removes every observation under the project
// together with its image blob. Records go down in one batch once all
// blobs are released.
func (c *cascadeDeleter) deleteObservationsOfProject(ctx context.Context, repo repositories.Repository, projectID uint) error {
	observations, err := repo.Observation().AllByProject(ctx, nil, projectID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	if len(observations) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(observations))
	for i := range observations {
		if err := c.deleteBlob(ctx, observations[i].DataImage.URL); err != nil {
			return err
		}
		ids = append(ids, observations[i].ID)
	}

	if err := repo.Observation().DeleteBatch(ctx, nil, ids); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	c.logger.Info("Cascaded observation delete", "project_id", projectID, "count", len(ids))
	return nil
}

// deleteProjectsOfTeacher removes every project under the teacher,
// recursing into each project's observations first.
func (c *cascadeDeleter) deleteProjectsOfTeacher(ctx context.Context, repo repositories.Repository, teacherID uint) error {
	projects, err := repo.Project().AllByTeacher(ctx, nil, teacherID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	if len(projects) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(projects))
	for i := range projects {
		if err := c.deleteObservationsOfProject(ctx, repo, projects[i].ID); err != nil {
			return err
		}
		if err := c.deleteBlob(ctx, projects[i].DescriptionImg.URL); err != nil {
			return err
		}
		ids = append(ids, projects[i].ID)
	}

	if err := repo.Project().DeleteBatch(ctx, nil, ids); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	c.logger.Info("Cascaded project delete", "teacher_id", teacherID, "count", len(ids))
	return nil
}

// deleteProjectImage releases a project's description image blob.
func (c *cascadeDeleter) deleteProjectImage(ctx context.Context, project *models.Project) error {
	return c.deleteBlob(ctx, project.DescriptionImg.URL)
}

// deleteObservationImage releases an observation's data image blob.
func (c *cascadeDeleter) deleteObservationImage(ctx context.Context, observation *models.Observation) error {
	return c.deleteBlob(ctx, observation.DataImage.URL)
}

func (c *cascadeDeleter) deleteBlob(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	if err := c.blobs.Delete(ctx, url); err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}
