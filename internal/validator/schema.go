package validator

import (
	"github.com/wildwatch-edu/observation-service/internal/models"
)

// The schema registry declares, per entity kind and operation, exactly which
// properties a request body may carry. Validation is strict: a missing
// required property, a failing check, an unrecognized property or a body
// with zero recognized properties all fail. Create and update share the same
// policy through differing property sets.

// PropertyCheck reports whether a decoded JSON value is acceptable.
type PropertyCheck func(value any) bool

type Property struct {
	Name     string
	Required bool
	Check    PropertyCheck
}

type PropertySet struct {
	Kind       models.Kind
	Operation  string
	Properties []Property
}

// ValidateProperties applies the strict schema policy to a decoded JSON body.
func (v *Validator) ValidateProperties(data map[string]any, set PropertySet) ValidationErrors {
	var errs ValidationErrors

	known := make(map[string]Property, len(set.Properties))
	for _, p := range set.Properties {
		known[p.Name] = p
	}

	recognized := 0
	for name, value := range data {
		p, ok := known[name]
		if !ok {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: "is not a recognized property",
				Rule:    "unknown_property",
			})
			continue
		}
		recognized++
		if p.Check != nil && !p.Check(value) {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: "has an invalid value",
				Value:   value,
				Rule:    "invalid_value",
			})
		}
	}

	for _, p := range set.Properties {
		if !p.Required {
			continue
		}
		if _, present := data[p.Name]; !present {
			errs = append(errs, ValidationError{
				Field:   p.Name,
				Message: "is required",
				Rule:    "required",
			})
		}
	}

	if recognized == 0 {
		errs = append(errs, ValidationError{
			Field:   "body",
			Message: "must contain at least one recognized property",
			Rule:    "empty_body",
		})
	}

	return errs
}

// ===== PROPERTY CHECKS =====

func IsString(maxLen int) PropertyCheck {
	return func(value any) bool {
		s, ok := value.(string)
		return ok && len(s) <= maxLen
	}
}

func IsNonEmptyString(maxLen int) PropertyCheck {
	return func(value any) bool {
		s, ok := value.(string)
		return ok && s != "" && len(s) <= maxLen
	}
}

func IsBool(value any) bool {
	_, ok := value.(bool)
	return ok
}

// IsID accepts a positive JSON number with no fractional part.
func IsID(value any) bool {
	f, ok := value.(float64)
	return ok && f > 0 && f == float64(uint(f))
}

// IsQuantity accepts a non-negative integral JSON number.
func IsQuantity(value any) bool {
	f, ok := value.(float64)
	return ok && f >= 0 && f == float64(int(f))
}

func IsDate(value any) bool {
	s, ok := value.(string)
	return ok && isDateString(s)
}

func isObject(value any, check func(map[string]any) bool) bool {
	m, ok := value.(map[string]any)
	return ok && check(m)
}

// IsImage accepts {title, url, alt_text}; title and url must be present.
func IsImage(value any) bool {
	return isObject(value, func(m map[string]any) bool {
		for key := range m {
			if key != "title" && key != "url" && key != "alt_text" {
				return false
			}
		}
		return IsNonEmptyString(200)(m["title"]) && IsNonEmptyString(512)(m["url"])
	})
}

// IsProjectDataNumber accepts {name, must_be_unique}. The derived number is
// never client-writable.
func IsProjectDataNumber(value any) bool {
	return isObject(value, func(m map[string]any) bool {
		for key := range m {
			if key != "name" && key != "must_be_unique" {
				return false
			}
		}
		return IsNonEmptyString(200)(m["name"]) && IsBool(m["must_be_unique"])
	})
}

// IsObservationDataNumber accepts {description, quantity}.
func IsObservationDataNumber(value any) bool {
	return isObject(value, func(m map[string]any) bool {
		for key := range m {
			if key != "description" && key != "quantity" {
				return false
			}
		}
		return IsNonEmptyString(300)(m["description"]) && IsQuantity(m["quantity"])
	})
}

// IsSecretQuestions accepts the four question/answer fields, all required.
func IsSecretQuestions(value any) bool {
	return isObject(value, func(m map[string]any) bool {
		fields := []string{"question_1", "question_2", "answer_1", "answer_2"}
		if len(m) != len(fields) {
			return false
		}
		for _, f := range fields {
			if !IsNonEmptyString(300)(m[f]) {
				return false
			}
		}
		return true
	})
}

// ===== PER-KIND PROPERTY SETS =====

var (
	TeacherCreateProps = PropertySet{
		Kind:      models.KindTeacher,
		Operation: "POST",
		Properties: []Property{
			{Name: "name", Required: true, Check: IsNonEmptyString(100)},
			{Name: "email", Required: true, Check: IsNonEmptyString(255)},
			{Name: "school", Required: true, Check: IsNonEmptyString(200)},
			{Name: "password", Required: true, Check: IsNonEmptyString(128)},
			{Name: "secret_questions", Required: true, Check: IsSecretQuestions},
			{Name: "profile_photo", Check: IsNonEmptyString(512)},
		},
	}

	TeacherUpdateProps = PropertySet{
		Kind:      models.KindTeacher,
		Operation: "PATCH",
		Properties: []Property{
			{Name: "name", Check: IsNonEmptyString(100)},
			{Name: "email", Check: IsNonEmptyString(255)},
			{Name: "school", Check: IsNonEmptyString(200)},
			{Name: "profile_photo", Check: IsNonEmptyString(512)},
		},
	}

	ProjectCreateProps = PropertySet{
		Kind:      models.KindProject,
		Operation: "POST",
		Properties: []Property{
			{Name: "teacher_id", Required: true, Check: IsID},
			{Name: "name", Required: true, Check: IsNonEmptyString(200)},
			{Name: "data_number", Required: true, Check: IsProjectDataNumber},
			{Name: "description_image", Check: IsImage},
			{Name: "description_text", Check: IsString(5000)},
		},
	}

	ProjectUpdateProps = PropertySet{
		Kind:      models.KindProject,
		Operation: "PATCH",
		Properties: []Property{
			{Name: "name", Check: IsNonEmptyString(200)},
			{Name: "description_image", Check: IsImage},
			{Name: "description_text", Check: IsString(5000)},
		},
	}

	ObservationCreateProps = PropertySet{
		Kind:      models.KindObservation,
		Operation: "POST",
		Properties: []Property{
			{Name: "date", Required: true, Check: IsDate},
			{Name: "data_number", Required: true, Check: IsObservationDataNumber},
			{Name: "data_image", Check: IsImage},
			{Name: "data_description", Check: IsString(5000)},
		},
	}

	ObservationUpdateProps = PropertySet{
		Kind:      models.KindObservation,
		Operation: "PATCH",
		Properties: []Property{
			{Name: "date", Check: IsDate},
			{Name: "data_number", Check: IsObservationDataNumber},
			{Name: "data_image", Check: IsImage},
			{Name: "data_description", Check: IsString(5000)},
		},
	}
)
