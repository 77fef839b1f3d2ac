package models

import "fmt"

// Kind identifies an entity kind handled by the CRUD pipeline.
type Kind string

const (
	KindTeacher     Kind = "teacher"
	KindProject     Kind = "project"
	KindObservation Kind = "observation"
)

// KindDescriptor captures the per-kind behavior the CRUD pipeline needs:
// where the embedded image URL lives, how to inject self links, which
// operations require authorization and the fixed page size for listing.
type KindDescriptor interface {
	Kind() Kind
	Collection() string
	ImageFieldPath() string
	PageSize() int
	// AuthRequired reports whether the HTTP-style operation (POST, GET,
	// PATCH, DELETE) must pass the auth guard.
	AuthRequired(op string) bool
	// InjectLinks fills the entity's self reference and any embedded
	// foreign-key self links.
	InjectLinks(entity any) error
}

type teacherDescriptor struct{}

func (teacherDescriptor) Kind() Kind             { return KindTeacher }
func (teacherDescriptor) Collection() string     { return "teachers" }
func (teacherDescriptor) ImageFieldPath() string { return "profile_photo" }
func (teacherDescriptor) PageSize() int          { return 20 }

func (teacherDescriptor) AuthRequired(op string) bool {
	// Reading a teacher is owner-scoped too: profile data includes email.
	return op != "POST"
}

func (teacherDescriptor) InjectLinks(entity any) error {
	t, ok := entity.(*Teacher)
	if !ok {
		return fmt.Errorf("inject links: expected *Teacher, got %T", entity)
	}
	t.Self = fmt.Sprintf("/api/v1/teachers/%d", t.ID)
	return nil
}

type projectDescriptor struct{}

func (projectDescriptor) Kind() Kind             { return KindProject }
func (projectDescriptor) Collection() string     { return "projects" }
func (projectDescriptor) ImageFieldPath() string { return "description_image.url" }
func (projectDescriptor) PageSize() int          { return 20 }

func (projectDescriptor) AuthRequired(op string) bool {
	return op == "POST" || op == "PATCH" || op == "DELETE"
}

func (projectDescriptor) InjectLinks(entity any) error {
	p, ok := entity.(*Project)
	if !ok {
		return fmt.Errorf("inject links: expected *Project, got %T", entity)
	}
	p.Self = fmt.Sprintf("/api/v1/projects/%d", p.ID)
	p.TeacherSelf = fmt.Sprintf("/api/v1/teachers/%d", p.TeacherID)
	return nil
}

type observationDescriptor struct{}

func (observationDescriptor) Kind() Kind             { return KindObservation }
func (observationDescriptor) Collection() string     { return "observations" }
func (observationDescriptor) ImageFieldPath() string { return "data_image.url" }
func (observationDescriptor) PageSize() int          { return 50 }

func (observationDescriptor) AuthRequired(op string) bool {
	return op == "POST" || op == "PATCH" || op == "DELETE"
}

func (observationDescriptor) InjectLinks(entity any) error {
	o, ok := entity.(*Observation)
	if !ok {
		return fmt.Errorf("inject links: expected *Observation, got %T", entity)
	}
	o.Self = fmt.Sprintf("/api/v1/projects/%d/observations/%d", o.ProjectID, o.ID)
	o.ProjectSelf = fmt.Sprintf("/api/v1/projects/%d", o.ProjectID)
	return nil
}

var kindDescriptors = map[Kind]KindDescriptor{
	KindTeacher:     teacherDescriptor{},
	KindProject:     projectDescriptor{},
	KindObservation: observationDescriptor{},
}

// DescriptorFor resolves the descriptor for a kind.
func DescriptorFor(kind Kind) (KindDescriptor, bool) {
	d, ok := kindDescriptors[kind]
	return d, ok
}
