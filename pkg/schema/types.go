package schema

import (
	"github.com/taxglide/filingwizard/pkg/filing"
)

// QuestionType is the closed set of input kinds the wizard understands.
type QuestionType string

const (
	TypeText        QuestionType = "text"
	TypeNumber      QuestionType = "number"
	TypeDate        QuestionType = "date"
	TypeSelect      QuestionType = "select"
	TypeRadio       QuestionType = "radio"
	TypeCheckbox    QuestionType = "checkbox"
	TypeMultiSelect QuestionType = "multiselect"
	TypeGroup       QuestionType = "group"
)

// Op is a conditional-clause operator.
type Op string

const (
	OpEquals    Op = "equals"
	OpNotEquals Op = "notEquals"
	OpOneOf     Op = "oneOf"
)

// Purpose marks questions the wizard itself needs to find: the marital
// status answer gates the spouse checkpoint and the dependents group feeds
// the dependent checkpoint.
const (
	PurposeMaritalStatus = "marital-status"
	PurposeDependents    = "dependents"
	PurposeRegion        = "region"
)

// Condition names a reference question and a comparison against its answer.
// Questions and sections without a condition are always visible.
type Condition struct {
	Question string `yaml:"question" json:"question"`
	Op       Op     `yaml:"op" json:"op"`
	Value    any    `yaml:"value,omitempty" json:"value,omitempty"`
	Values   []any  `yaml:"values,omitempty" json:"values,omitempty"`
}

// SubField describes one field inside a repeatable group item.
type SubField struct {
	Name     string       `yaml:"name" json:"name"`
	Type     QuestionType `yaml:"type" json:"type"`
	Label    string       `yaml:"label,omitempty" json:"label,omitempty"`
	Required bool         `yaml:"required,omitempty" json:"required,omitempty"`
	Options  []string     `yaml:"options,omitempty" json:"options,omitempty"`

	// IncomeFlag marks the checkbox that decides whether a dependent needs
	// a filing of their own.
	IncomeFlag bool `yaml:"incomeFlag,omitempty" json:"incomeFlag,omitempty"`
}

// Question is a single prompt inside a section. Answers are stored under the
// question ID as a flat dotted key.
type Question struct {
	ID       string       `yaml:"id" json:"id"`
	Type     QuestionType `yaml:"type" json:"type"`
	Label    string       `yaml:"label,omitempty" json:"label,omitempty"`
	Help     string       `yaml:"help,omitempty" json:"help,omitempty"`
	Required bool         `yaml:"required,omitempty" json:"required,omitempty"`
	Options  []string     `yaml:"options,omitempty" json:"options,omitempty"`
	When     *Condition   `yaml:"when,omitempty" json:"when,omitempty"`
	Fields   []SubField   `yaml:"fields,omitempty" json:"fields,omitempty"`

	// Purpose tags questions with wizard-level meaning. See the Purpose*
	// constants.
	Purpose string `yaml:"purpose,omitempty" json:"purpose,omitempty"`

	// SpouseEligible lists the marital answers that keep the spouse
	// checkpoint open. Only meaningful on the marital-status question.
	SpouseEligible []string `yaml:"spouseEligible,omitempty" json:"spouseEligible,omitempty"`

	// Complexity names a pricing adjustment applied when this question has
	// a truthy answer (for example "self-employment").
	Complexity string `yaml:"complexity,omitempty" json:"complexity,omitempty"`
}

// Section is an ordered run of questions shown as one wizard page.
type Section struct {
	ID        string     `yaml:"id" json:"id"`
	Title     string     `yaml:"title" json:"title"`
	When      *Condition `yaml:"when,omitempty" json:"when,omitempty"`
	Questions []Question `yaml:"questions" json:"questions"`
}

// Schema is the full questionnaire for one (year, kind) pair. Immutable once
// loaded.
type Schema struct {
	Year     int         `yaml:"year" json:"year"`
	Kind     filing.Kind `yaml:"kind" json:"kind"`
	Sections []Section   `yaml:"sections" json:"sections"`
}

// Question finds a question by ID across all sections.
func (s Schema) Question(id string) (Question, bool) {
	for _, sec := range s.Sections {
		for _, q := range sec.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

// ByPurpose returns the first question tagged with the given purpose.
func (s Schema) ByPurpose(purpose string) (Question, bool) {
	for _, sec := range s.Sections {
		for _, q := range sec.Questions {
			if q.Purpose == purpose {
				return q, true
			}
		}
	}
	return Question{}, false
}

// SectionIndex returns the position of a section by ID, or -1.
func (s Schema) SectionIndex(id string) int {
	for i, sec := range s.Sections {
		if sec.ID == id {
			return i
		}
	}
	return -1
}

// HasOption reports whether value is one of the declared options.
func (q Question) HasOption(value string) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}
