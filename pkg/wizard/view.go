package wizard

import (
	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/pricing"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/submit"
	"github.com/taxglide/filingwizard/pkg/validation"
)

// Completion summarises one record's progress for the sidebar and review
// screen.
type Completion struct {
	Role          filing.Role `json:"role"`
	RecordID      string      `json:"recordId"`
	Ordinal       int         `json:"ordinal,omitempty"`
	Label         string      `json:"label,omitempty"`
	MissingFields int         `json:"missingFields"`
	Complete      bool        `json:"complete"`
}

// View is the read-only projection the presentation layer consumes after
// every dispatch. Validation problems and submission outcomes live here:
// they are recoverable states, not Go errors.
type View struct {
	FilingID string `json:"filingId"`
	Phase    Phase  `json:"phase"`

	// Current section, populated while a role is active.
	SectionID    string            `json:"sectionId,omitempty"`
	SectionTitle string            `json:"sectionTitle,omitempty"`
	SectionCount int               `json:"sectionCount,omitempty"`
	Questions    []schema.Question `json:"questions,omitempty"`

	// Errors are per-field problems for the current section.
	Errors []validation.FieldError `json:"errors,omitempty"`

	// RoleGate is set when COMPLETE_PHASE was refused.
	RoleGate *validation.RoleResult `json:"roleGate,omitempty"`

	// Submission carries the outcome of the latest SUBMIT.
	Submission *submit.Result `json:"submission,omitempty"`

	// Notice is an informational continuation, for example when declared
	// dependents earn no income and no separate returns are needed.
	Notice string `json:"notice,omitempty"`

	Reference      string         `json:"reference,omitempty"`
	Pricing        *pricing.Quote `json:"pricing,omitempty"`
	AmountDueCents int64          `json:"amountDueCents"`
	NoPaymentDue   bool           `json:"noPaymentDue,omitempty"`
	Completion     []Completion   `json:"completion,omitempty"`
}
