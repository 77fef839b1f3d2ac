package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/wildwatch-edu/observation-service/internal/models"
	"github.com/wildwatch-edu/observation-service/internal/repositories"
)

// fakeRepository is an in-memory implementation of repositories.Repository
// for service tests. WithTransaction hands the same instance back, so a
// returned error leaves partially applied state visible; tests that assert
// atomicity order their failing step first, mirroring how the real
// transaction aborts.
type fakeRepository struct {
	teachers     map[uint]*models.Teacher
	projects     map[uint]*models.Project
	observations map[uint]*models.Observation
	credentials  map[uint]*models.Credential // keyed by teacher ID

	nextID uint

	failProjectUpdate bool

	projectExistsChecks     int
	observationBatchDeletes int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		teachers:     make(map[uint]*models.Teacher),
		projects:     make(map[uint]*models.Project),
		observations: make(map[uint]*models.Observation),
		credentials:  make(map[uint]*models.Credential),
		nextID:       1,
	}
}

func (f *fakeRepository) allocate() uint {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepository) Teacher() repositories.TeacherRepository         { return (*fakeTeacherRepo)(f) }
func (f *fakeRepository) Project() repositories.ProjectRepository         { return (*fakeProjectRepo)(f) }
func (f *fakeRepository) Observation() repositories.ObservationRepository { return (*fakeObservationRepo)(f) }
func (f *fakeRepository) Credential() repositories.CredentialRepository   { return (*fakeCredentialRepo)(f) }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

type fakeTeacherRepo fakeRepository

func (r *fakeTeacherRepo) Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	teacher.ID = (*fakeRepository)(r).allocate()
	copied := *teacher
	r.teachers[teacher.ID] = &copied
	return nil
}

func (r *fakeTeacherRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Teacher, error) {
	teacher, ok := r.teachers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *teacher
	return &copied, nil
}

func (r *fakeTeacherRepo) Update(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	if _, ok := r.teachers[teacher.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *teacher
	r.teachers[teacher.ID] = &copied
	return nil
}

func (r *fakeTeacherRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.teachers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.teachers, id)
	return nil
}

func (r *fakeTeacherRepo) List(ctx context.Context, tx *gorm.DB, page repositories.PageRequest) ([]*models.Teacher, string, error) {
	afterID := uint(0)
	if page.Cursor != "" {
		id, err := repositories.DecodeCursor(models.KindTeacher, page.Cursor)
		if err != nil {
			return nil, "", err
		}
		afterID = id
	}

	var out []*models.Teacher
	for _, t := range r.teachers {
		if t.ID > afterID {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	size := page.PageSize
	if size <= 0 {
		size = 20
	}
	cursor := ""
	if len(out) > size {
		out = out[:size]
		cursor = repositories.EncodeCursor(models.KindTeacher, out[len(out)-1].ID)
	}
	return out, cursor, nil
}

func (r *fakeTeacherRepo) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	_, ok := r.teachers[id]
	return ok, nil
}

type fakeProjectRepo fakeRepository

func (r *fakeProjectRepo) Create(ctx context.Context, tx *gorm.DB, project *models.Project) error {
	project.ID = (*fakeRepository)(r).allocate()
	copied := *project
	r.projects[project.ID] = &copied
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Project, error) {
	project, ok := r.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *project
	return &copied, nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, tx *gorm.DB, project *models.Project) error {
	if r.failProjectUpdate {
		return fmt.Errorf("simulated write failure")
	}
	if _, ok := r.projects[project.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *project
	r.projects[project.ID] = &copied
	return nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.projects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepo) DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error {
	for _, id := range ids {
		delete(r.projects, id)
	}
	return nil
}

func (r *fakeProjectRepo) List(ctx context.Context, tx *gorm.DB, page repositories.PageRequest) ([]*models.Project, string, error) {
	afterID := uint(0)
	if page.Cursor != "" {
		id, err := repositories.DecodeCursor(models.KindProject, page.Cursor)
		if err != nil {
			return nil, "", err
		}
		afterID = id
	}

	var out []*models.Project
	for _, p := range r.projects {
		if p.ID > afterID {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	size := page.PageSize
	if size <= 0 {
		size = 20
	}
	cursor := ""
	if len(out) > size {
		out = out[:size]
		cursor = repositories.EncodeCursor(models.KindProject, out[len(out)-1].ID)
	}
	return out, cursor, nil
}

func (r *fakeProjectRepo) AllByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range r.projects {
		if p.TeacherID == teacherID {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProjectRepo) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	r.projectExistsChecks++
	_, ok := r.projects[id]
	return ok, nil
}

func (r *fakeProjectRepo) UpdateDataNumber(ctx context.Context, tx *gorm.DB, projectID uint, number int) error {
	if r.failProjectUpdate {
		return fmt.Errorf("simulated write failure")
	}
	project, ok := r.projects[projectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	project.DataNumber.Number = number
	return nil
}

type fakeObservationRepo fakeRepository

func (r *fakeObservationRepo) Create(ctx context.Context, tx *gorm.DB, observation *models.Observation) error {
	observation.ID = (*fakeRepository)(r).allocate()
	copied := *observation
	r.observations[observation.ID] = &copied
	return nil
}

func (r *fakeObservationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Observation, error) {
	observation, ok := r.observations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *observation
	return &copied, nil
}

func (r *fakeObservationRepo) Update(ctx context.Context, tx *gorm.DB, observation *models.Observation) error {
	if _, ok := r.observations[observation.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *observation
	r.observations[observation.ID] = &copied
	return nil
}

func (r *fakeObservationRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.observations[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.observations, id)
	return nil
}

func (r *fakeObservationRepo) DeleteBatch(ctx context.Context, tx *gorm.DB, ids []uint) error {
	r.observationBatchDeletes++
	for _, id := range ids {
		delete(r.observations, id)
	}
	return nil
}

func (r *fakeObservationRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uint, page repositories.PageRequest) ([]*models.Observation, string, error) {
	afterID := uint(0)
	if page.Cursor != "" {
		id, err := repositories.DecodeCursor(models.KindObservation, page.Cursor)
		if err != nil {
			return nil, "", err
		}
		afterID = id
	}

	all, _ := r.AllByProject(ctx, tx, projectID)
	var out []*models.Observation
	for _, o := range all {
		if o.ID > afterID {
			out = append(out, o)
		}
	}

	size := page.PageSize
	if size <= 0 {
		size = 50
	}
	cursor := ""
	if len(out) > size {
		out = out[:size]
		cursor = repositories.EncodeCursor(models.KindObservation, out[len(out)-1].ID)
	}
	return out, cursor, nil
}

func (r *fakeObservationRepo) AllByProject(ctx context.Context, tx *gorm.DB, projectID uint) ([]*models.Observation, error) {
	var out []*models.Observation
	for _, o := range r.observations {
		if o.ProjectID == projectID {
			copied := *o
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeObservationRepo) Descriptions(ctx context.Context, tx *gorm.DB, projectID uint, excludeID uint) ([]string, error) {
	var out []string
	for _, o := range r.observations {
		if o.ProjectID == projectID && o.ID != excludeID {
			out = append(out, o.DataNumber.Description)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakeCredentialRepo fakeRepository

func (r *fakeCredentialRepo) Create(ctx context.Context, tx *gorm.DB, credential *models.Credential) error {
	credential.ID = (*fakeRepository)(r).allocate()
	copied := *credential
	r.credentials[credential.TeacherID] = &copied
	return nil
}

func (r *fakeCredentialRepo) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) (*models.Credential, error) {
	credential, ok := r.credentials[teacherID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *credential
	return &copied, nil
}

func (r *fakeCredentialRepo) Update(ctx context.Context, tx *gorm.DB, credential *models.Credential) error {
	if _, ok := r.credentials[credential.TeacherID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *credential
	r.credentials[credential.TeacherID] = &copied
	return nil
}

func (r *fakeCredentialRepo) DeleteByTeacher(ctx context.Context, tx *gorm.DB, teacherID uint) error {
	if _, ok := r.credentials[teacherID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.credentials, teacherID)
	return nil
}

func repoPage(cursor string, size int) repositories.PageRequest {
	return repositories.PageRequest{Cursor: cursor, PageSize: size}
}

// authHeaderFor builds the credential header teachers authenticate with.
func authHeaderFor(teacherID uint, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%d:%s", teacherID, secret)))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
