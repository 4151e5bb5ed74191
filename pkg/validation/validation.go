// Package validation checks answer maps against a questionnaire. It never
// panics and never reports user input through Go errors: every check returns
// a structured result the caller can render inline.
package validation

import (
	"fmt"
	"time"

	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/visibility"
)

const dateLayout = "2006-01-02"

// FieldError is a single recoverable problem with one answer. Key is the
// question ID, or "{questionID}.{index}.{field}" inside repeatable groups.
type FieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// SectionResult is the outcome of validating one visible section.
type SectionResult struct {
	SectionID string       `json:"sectionId"`
	Valid     bool         `json:"valid"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// SectionRef names a section that still has missing or invalid fields.
type SectionRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// RoleResult aggregates validation over every visible section for one role's
// answer map. It is the gate consulted before a role may be marked complete,
// so skipping ahead in the UI cannot bypass earlier required fields.
type RoleResult struct {
	Valid              bool         `json:"valid"`
	MissingSections    []SectionRef `json:"missingSections,omitempty"`
	TotalMissingFields int          `json:"totalMissingFields"`

	// FirstMissingIndex is the index of the first failing section within
	// the visible section list, or -1 when valid. The wizard jumps here on
	// a failed phase completion.
	FirstMissingIndex int `json:"firstMissingIndex"`
}

// ValidateSection checks every visible question in one section.
func ValidateSection(sec schema.Section, answers map[string]any) SectionResult {
	result := SectionResult{SectionID: sec.ID, Valid: true}
	for _, q := range visibility.VisibleQuestions(sec, answers) {
		result.Errors = append(result.Errors, validateQuestion(q, answers[q.ID])...)
	}
	result.Valid = len(result.Errors) == 0
	return result
}

// ValidateRole runs ValidateSection over every visible section of the
// questionnaire, hidden sections excluded entirely.
func ValidateRole(sch schema.Schema, answers map[string]any) RoleResult {
	result := RoleResult{Valid: true, FirstMissingIndex: -1}
	visibleIndex := -1
	for _, sec := range sch.Sections {
		if !visibility.SectionVisible(sec, answers) {
			continue
		}
		visibleIndex++
		section := ValidateSection(sec, answers)
		if section.Valid {
			continue
		}
		result.Valid = false
		result.MissingSections = append(result.MissingSections, SectionRef{ID: sec.ID, Title: sec.Title})
		result.TotalMissingFields += len(section.Errors)
		if result.FirstMissingIndex < 0 {
			result.FirstMissingIndex = visibleIndex
		}
	}
	return result
}

func validateQuestion(q schema.Question, value any) []FieldError {
	if visibility.Empty(value) {
		if q.Required {
			return []FieldError{{Key: q.ID, Message: requiredMessage(q)}}
		}
		return nil
	}

	switch q.Type {
	case schema.TypeNumber:
		if _, ok := visibility.AsNumber(value); !ok {
			return []FieldError{{Key: q.ID, Message: "enter a number"}}
		}
	case schema.TypeDate:
		if !validDate(value) {
			return []FieldError{{Key: q.ID, Message: "enter a date as YYYY-MM-DD"}}
		}
	case schema.TypeSelect, schema.TypeRadio:
		if !q.HasOption(visibility.AsString(value)) {
			return []FieldError{{Key: q.ID, Message: "choose one of the listed options"}}
		}
	case schema.TypeMultiSelect:
		for _, item := range asList(value) {
			if !q.HasOption(visibility.AsString(item)) {
				return []FieldError{{Key: q.ID, Message: "choose only listed options"}}
			}
		}
	case schema.TypeGroup:
		return validateGroup(q, value)
	}
	return nil
}

// validateGroup checks each repeated item independently with the same rules,
// keyed by "{questionID}.{index}.{field}".
func validateGroup(q schema.Question, value any) []FieldError {
	var errs []FieldError
	for i, raw := range asList(value) {
		item, _ := raw.(map[string]any)
		for _, f := range q.Fields {
			key := fmt.Sprintf("%s.%d.%s", q.ID, i, f.Name)
			fieldValue := item[f.Name]
			if visibility.Empty(fieldValue) {
				if f.Required {
					errs = append(errs, FieldError{Key: key, Message: requiredFieldMessage(f)})
				}
				continue
			}
			switch f.Type {
			case schema.TypeNumber:
				if _, ok := visibility.AsNumber(fieldValue); !ok {
					errs = append(errs, FieldError{Key: key, Message: "enter a number"})
				}
			case schema.TypeDate:
				if !validDate(fieldValue) {
					errs = append(errs, FieldError{Key: key, Message: "enter a date as YYYY-MM-DD"})
				}
			case schema.TypeSelect, schema.TypeRadio:
				if !hasOption(f.Options, visibility.AsString(fieldValue)) {
					errs = append(errs, FieldError{Key: key, Message: "choose one of the listed options"})
				}
			}
		}
	}
	return errs
}

func validDate(value any) bool {
	if _, ok := value.(time.Time); ok {
		return true
	}
	_, err := time.Parse(dateLayout, visibility.AsString(value))
	return err == nil
}

func asList(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

func hasOption(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}

func requiredMessage(q schema.Question) string {
	if q.Label != "" {
		return q.Label + " is required"
	}
	return "this field is required"
}

func requiredFieldMessage(f schema.SubField) string {
	if f.Label != "" {
		return f.Label + " is required"
	}
	return "this field is required"
}
