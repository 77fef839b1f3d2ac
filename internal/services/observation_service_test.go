package services

import (
	"context"
	"errors"
	"testing"

	"github.com/wildwatch-edu/observation-service/internal/events"
	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/secrets"
	"github.com/wildwatch-edu/observation-service/internal/storage"
	"github.com/wildwatch-edu/observation-service/internal/validator"
)

const testPassword = "Relativity1"

type testEnv struct {
	repo         *fakeRepository
	blobs        *storage.MemoryStore
	publisher    *events.MockEventPublisher
	credentials  CredentialService
	auth         AuthGuard
	teachers     TeacherService
	projects     ProjectService
	observations ObservationService
	export       ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeRepository()
	box, err := secrets.NewBox("unit-test-master-key")
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}

	v := validator.New()
	logger := testLogger()
	blobs := storage.NewMemoryStore()
	publisher := events.NewMockEventPublisher(logger)

	credentials := NewCredentialService(repo, box, logger)
	auth := NewAuthGuard(credentials, logger)

	return &testEnv{
		repo:         repo,
		blobs:        blobs,
		publisher:    publisher,
		credentials:  credentials,
		auth:         auth,
		teachers:     NewTeacherService(repo, credentials, auth, blobs, blobs, v, publisher, logger, "https://static.test/default-avatar.png"),
		projects:     NewProjectService(repo, auth, blobs, blobs, v, publisher, logger),
		observations: NewObservationService(repo, auth, blobs, blobs, v, publisher, logger),
		export:       NewExportService(repo, auth, logger),
	}
}

func (env *testEnv) createTeacher(t *testing.T, email string) (uint, string) {
	t.Helper()

	teacher, err := env.teachers.Create(context.Background(), map[string]any{
		"name":     "Ms. Rivera",
		"email":    email,
		"school":   "Lakeside Elementary",
		"password": testPassword,
		"secret_questions": map[string]any{
			"question_1": "First pet?",
			"question_2": "Home town?",
			"answer_1":   "Goldie",
			"answer_2":   "Duluth",
		},
	})
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	return teacher.ID, authHeaderFor(teacher.ID, testPassword)
}

func (env *testEnv) createProject(t *testing.T, teacherID uint, header string, mustBeUnique bool) *models.Project {
	t.Helper()

	project, err := env.projects.Create(context.Background(), map[string]any{
		"teacher_id": float64(teacherID),
		"name":       "Backyard Birds",
		"data_number": map[string]any{
			"name":           "Species spotted",
			"must_be_unique": mustBeUnique,
		},
	}, header)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func (env *testEnv) addObservation(t *testing.T, projectID uint, header, description string, quantity int) *models.Observation {
	t.Helper()

	observation, err := env.observations.Create(context.Background(), projectID, map[string]any{
		"date": "2026-04-12",
		"data_number": map[string]any{
			"description": description,
			"quantity":    float64(quantity),
		},
	}, header)
	if err != nil {
		t.Fatalf("create observation: %v", err)
	}
	return observation
}

func (env *testEnv) projectNumber(t *testing.T, projectID uint) int {
	t.Helper()

	project, err := env.projects.GetByID(context.Background(), projectID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	return project.DataNumber.Number
}

func TestAggregateSumsQuantities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, false)

	first := env.addObservation(t, project.ID, header, "Robin", 2)
	env.addObservation(t, project.ID, header, "Robin", 3)
	if got := env.projectNumber(t, project.ID); got != 5 {
		t.Fatalf("number after creates = %d, want 5", got)
	}

	_, err := env.observations.Update(ctx, project.ID, first.ID, map[string]any{
		"data_number": map[string]any{"description": "Robin", "quantity": float64(7)},
	}, header)
	if err != nil {
		t.Fatalf("update observation: %v", err)
	}
	if got := env.projectNumber(t, project.ID); got != 10 {
		t.Fatalf("number after update = %d, want 10", got)
	}

	if err := env.observations.Delete(ctx, project.ID, first.ID, header); err != nil {
		t.Fatalf("delete observation: %v", err)
	}
	if got := env.projectNumber(t, project.ID); got != 3 {
		t.Fatalf("number after delete = %d, want 3", got)
	}
}

func TestAggregateCountsDistinctDescriptions(t *testing.T) {
	env := newTestEnv(t)
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, true)

	first := env.addObservation(t, project.ID, header, "Goldfinch", 1)
	if got := env.projectNumber(t, project.ID); got != 1 {
		t.Fatalf("number after first Goldfinch = %d, want 1", got)
	}

	second := env.addObservation(t, project.ID, header, "Goldfinch", 3)
	if got := env.projectNumber(t, project.ID); got != 1 {
		t.Fatalf("number after duplicate Goldfinch = %d, want 1", got)
	}

	ctx := context.Background()
	if err := env.observations.Delete(ctx, project.ID, first.ID, header); err != nil {
		t.Fatalf("delete first: %v", err)
	}
	if got := env.projectNumber(t, project.ID); got != 1 {
		t.Fatalf("number after deleting one of two = %d, want 1", got)
	}

	if err := env.observations.Delete(ctx, project.ID, second.ID, header); err != nil {
		t.Fatalf("delete second: %v", err)
	}
	if got := env.projectNumber(t, project.ID); got != 0 {
		t.Fatalf("number after deleting last = %d, want 0", got)
	}
}

func TestAggregateUniqueUpdateMovesDescription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, true)

	env.addObservation(t, project.ID, header, "Goldfinch", 1)
	moved := env.addObservation(t, project.ID, header, "Goldfinch", 1)
	if got := env.projectNumber(t, project.ID); got != 1 {
		t.Fatalf("number = %d, want 1", got)
	}

	// Renaming a duplicate to a new species adds a distinct description
	// without retiring the old one.
	_, err := env.observations.Update(ctx, project.ID, moved.ID, map[string]any{
		"data_number": map[string]any{"description": "Cardinal", "quantity": float64(1)},
	}, header)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := env.projectNumber(t, project.ID); got != 2 {
		t.Fatalf("number after rename = %d, want 2", got)
	}

	// Quantity changes are invisible when uniqueness is on.
	_, err = env.observations.Update(ctx, project.ID, moved.ID, map[string]any{
		"data_number": map[string]any{"description": "Cardinal", "quantity": float64(9)},
	}, header)
	if err != nil {
		t.Fatalf("quantity-only update: %v", err)
	}
	if got := env.projectNumber(t, project.ID); got != 2 {
		t.Fatalf("number after quantity change = %d, want 2", got)
	}
}

func TestObservationCreateRejectsClientNumber(t *testing.T) {
	env := newTestEnv(t)
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, false)

	_, err := env.observations.Create(context.Background(), project.ID, map[string]any{
		"date": "2026-04-12",
		"data_number": map[string]any{
			"description": "Robin",
			"quantity":    float64(2),
			"number":      float64(99),
		},
	}, header)

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want validation errors", err)
	}
}

func TestObservationRequiresLiveAncestor(t *testing.T) {
	env := newTestEnv(t)
	_, header := env.createTeacher(t, "rivera@school.edu")

	_, err := env.observations.Create(context.Background(), 999, map[string]any{
		"date":        "2026-04-12",
		"data_number": map[string]any{"description": "Robin", "quantity": float64(1)},
	}, header)
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestObservationReadsRequireLiveProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, false)
	observation := env.addObservation(t, project.ID, header, "Robin", 1)

	if err := env.projects.Delete(ctx, project.ID, header); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	checksBefore := env.repo.projectExistsChecks
	if _, err := env.observations.GetByID(ctx, project.ID, observation.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("get err = %v, want ErrProjectNotFound", err)
	}
	if _, err := env.observations.ListByProject(ctx, project.ID, repoPage("", 2)); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("list err = %v, want ErrProjectNotFound", err)
	}
	if env.repo.projectExistsChecks != checksBefore+2 {
		t.Errorf("project existence checks = %d, want %d", env.repo.projectExistsChecks, checksBefore+2)
	}
}

func TestObservationScopedToProject(t *testing.T) {
	env := newTestEnv(t)
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	projectA := env.createProject(t, teacherID, header, false)
	projectB := env.createProject(t, teacherID, header, false)
	observation := env.addObservation(t, projectA.ID, header, "Robin", 1)

	_, err := env.observations.GetByID(context.Background(), projectB.ID, observation.ID)
	if !errors.Is(err, ErrObservationNotFound) {
		t.Fatalf("cross-project read err = %v, want ErrObservationNotFound", err)
	}
}

func TestObservationOwnershipBeatsAuthentication(t *testing.T) {
	env := newTestEnv(t)
	ownerID, ownerHeader := env.createTeacher(t, "owner@school.edu")
	_, otherHeader := env.createTeacher(t, "other@school.edu")
	project := env.createProject(t, ownerID, ownerHeader, false)
	observation := env.addObservation(t, project.ID, ownerHeader, "Robin", 1)

	// A perfectly valid login for the wrong teacher is Forbidden, never a
	// bad-password response.
	err := env.observations.Delete(context.Background(), project.ID, observation.ID, otherHeader)
	if !errors.Is(err, ErrOwnershipDenied) {
		t.Fatalf("err = %v, want ErrOwnershipDenied", err)
	}

	err = env.observations.Delete(context.Background(), project.ID, observation.ID, authHeaderFor(ownerID, "WrongPass1"))
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("wrong password err = %v, want ErrUnauthenticated", err)
	}

	err = env.observations.Delete(context.Background(), project.ID, observation.ID, "")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("missing header err = %v, want ErrUnauthenticated", err)
	}
}

func TestObservationUpdateBadImageLeavesRecordIntact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, false)

	imageURL := "https://blobs.test/finch.jpg"
	env.blobs.Put(imageURL, "image/jpeg", []byte("jpeg-bytes"))

	observation, err := env.observations.Create(ctx, project.ID, map[string]any{
		"date":        "2026-04-12",
		"data_number": map[string]any{"description": "Robin", "quantity": float64(2)},
		"data_image":  map[string]any{"title": "Finch", "url": imageURL},
	}, header)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.observations.Update(ctx, project.ID, observation.ID, map[string]any{
		"data_number": map[string]any{"description": "Robin", "quantity": float64(9)},
		"data_image":  map[string]any{"title": "Missing", "url": "https://blobs.test/missing.jpg"},
	}, header)
	if !errors.Is(err, ErrUnprocessableImage) {
		t.Fatalf("err = %v, want ErrUnprocessableImage", err)
	}

	unchanged, err := env.observations.GetByID(ctx, project.ID, observation.ID)
	if err != nil {
		t.Fatalf("get after failed update: %v", err)
	}
	if unchanged.DataNumber.Quantity != 2 {
		t.Errorf("quantity = %d, want 2 (record must be untouched)", unchanged.DataNumber.Quantity)
	}
	if !env.blobs.Has(imageURL) {
		t.Errorf("old image blob was deleted by a failed update")
	}
	if got := env.projectNumber(t, project.ID); got != 2 {
		t.Errorf("aggregate = %d, want 2 (must not move)", got)
	}
}

func TestObservationDeleteRemovesImageBlob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, false)

	imageURL := "https://blobs.test/finch.jpg"
	env.blobs.Put(imageURL, "image/jpeg", []byte("jpeg-bytes"))

	observation, err := env.observations.Create(ctx, project.ID, map[string]any{
		"date":        "2026-04-12",
		"data_number": map[string]any{"description": "Robin", "quantity": float64(1)},
		"data_image":  map[string]any{"title": "Finch", "url": imageURL},
	}, header)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := env.observations.Delete(ctx, project.ID, observation.ID, header); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if env.blobs.Has(imageURL) {
		t.Errorf("image blob survived the observation delete")
	}
}

func TestObservationListPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, false)

	for i := 0; i < 5; i++ {
		env.addObservation(t, project.ID, header, "Robin", 1)
	}

	page, err := env.observations.ListByProject(ctx, project.ID, repoPage("", 2))
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page.Observations) != 2 || page.Cursor == "" {
		t.Fatalf("first page: %d items, cursor %q", len(page.Observations), page.Cursor)
	}

	seen := len(page.Observations)
	for page.Cursor != "" {
		page, err = env.observations.ListByProject(ctx, project.ID, repoPage(page.Cursor, 2))
		if err != nil {
			t.Fatalf("next page: %v", err)
		}
		seen += len(page.Observations)
	}
	if seen != 5 {
		t.Errorf("walked %d observations, want 5", seen)
	}

	_, err = env.observations.ListByProject(ctx, project.ID, repoPage("not-a-cursor", 2))
	if !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("bad cursor err = %v, want ErrInvalidCursor", err)
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	env := newTestEnv(t)
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, false)
	observation := env.addObservation(t, project.ID, header, "Robin", 1)
	if err := env.observations.Delete(context.Background(), project.ID, observation.ID, header); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var types []string
	for _, event := range env.publisher.GetPublishedEvents() {
		types = append(types, event.Type)
	}
	want := []string{events.TeacherCreated, events.ProjectCreated, events.ObservationCreated, events.ObservationDeleted}
	if len(types) != len(want) {
		t.Fatalf("published %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestExportObservations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacherID, header := env.createTeacher(t, "rivera@school.edu")
	project := env.createProject(t, teacherID, header, false)
	env.addObservation(t, project.ID, header, "Robin", 2)
	env.addObservation(t, project.ID, header, "Goldfinch", 1)

	data, filename, err := env.export.ExportObservations(ctx, project.ID, header)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(data) == 0 {
		t.Error("export produced no bytes")
	}
	if filename == "" {
		t.Error("export produced no filename")
	}

	_, otherHeader := env.createTeacher(t, "other@school.edu")
	if _, _, err := env.export.ExportObservations(ctx, project.ID, otherHeader); !errors.Is(err, ErrOwnershipDenied) {
		t.Errorf("foreign export err = %v, want ErrOwnershipDenied", err)
	}
}
