package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

var exportHeader = []string{"ID", "Date", "Description", "Quantity", "Notes", "Image URL"}

type exportService struct {
	repo   repositories.Repository
	auth   AuthGuard
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, auth AuthGuard, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, auth: auth, logger: logger}
}

// ExportObservations renders every observation of the project as a
// spreadsheet. Owner-only: the export includes rows a paginated listing
// would truncate.
func (s *exportService) ExportObservations(ctx context.Context, projectID uint, authHeader string) ([]byte, string, error) {
	project, err := s.repo.Project().GetByID(ctx, nil, projectID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrProjectNotFound
		}
		return nil, "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	if err := s.auth.Authorize(ctx, s.repo, authHeader, project.TeacherID, nil, false); err != nil {
		return nil, "", err
	}

	observations, err := s.repo.Observation().AllByProject(ctx, nil, projectID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	data, err := buildObservationsWorkbook(project, observations)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	filename := fmt.Sprintf("project-%d-observations.xlsx", projectID)
	s.logger.Info("Exported observations", "project_id", projectID, "rows", len(observations))
	return data, filename, nil
}

func buildObservationsWorkbook(project *models.Project, observations []*models.Observation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Observations"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for col, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	end, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	_ = f.SetCellStyle(sheet, "A1", end, bold)

	for r, obs := range observations {
		row := []string{
			strconv.FormatUint(uint64(obs.ID), 10),
			obs.Date,
			obs.DataNumber.Description,
			strconv.Itoa(obs.DataNumber.Quantity),
			obs.DataDescription,
			obs.DataImage.URL,
		}
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheet, cell, val); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	// A summary row keeps the aggregate visible offline too.
	summaryCell, _ := excelize.CoordinatesToCellName(1, len(observations)+3)
	label := fmt.Sprintf("%s: %d", project.DataNumber.Name, project.DataNumber.Number)
	_ = f.SetCellStr("Observations", summaryCell, label)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
