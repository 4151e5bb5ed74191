// Package review builds the read-back summary shown before submission:
// every record's visible, answered questions rendered as label/value pairs,
// alongside completion counts and the fee quote. Free-text answers pass
// through an HTML-stripping sanitizer so a pasted markup fragment can never
// reach a rendered surface.
package review

import (
	"fmt"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/pricing"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/validation"
	"github.com/taxglide/filingwizard/pkg/visibility"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}

func sanitize(raw string) string {
	return strings.TrimSpace(sanitizer().Sanitize(raw))
}

// Answer is one rendered question/answer pair.
type Answer struct {
	QuestionID string `json:"questionId"`
	Label      string `json:"label"`
	Value      string `json:"value"`
}

// SectionSummary groups the answered questions of one visible section.
type SectionSummary struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Answers []Answer `json:"answers"`
}

// RecordSummary covers one person or business record.
type RecordSummary struct {
	Role          filing.Role      `json:"role"`
	RecordID      string           `json:"recordId"`
	Label         string           `json:"label,omitempty"`
	Complete      bool             `json:"complete"`
	MissingFields int              `json:"missingFields"`
	Sections      []SectionSummary `json:"sections"`
}

// Summary is the full pre-submission review model.
type Summary struct {
	FilingID       string          `json:"filingId"`
	Year           int             `json:"year"`
	Kind           filing.Kind     `json:"kind"`
	Status         filing.Status   `json:"status"`
	Reference      string          `json:"reference,omitempty"`
	Records        []RecordSummary `json:"records"`
	Quote          pricing.Quote   `json:"quote"`
	AmountDueCents int64           `json:"amountDueCents"`
	NoPaymentDue   bool            `json:"noPaymentDue,omitempty"`
}

// Builder renders review summaries. The zero-value fee schedule applies
// unless a calculator is supplied.
type Builder struct {
	calc *pricing.Calculator
}

func NewBuilder(calc *pricing.Calculator) *Builder {
	if calc == nil {
		calc = pricing.New()
	}
	return &Builder{calc: calc}
}

// Build assembles the summary for a filing and its records. Hidden sections
// and unanswered questions are left out entirely rather than rendered
// blank.
func (b *Builder) Build(f *filing.Filing, sch schema.Schema, persons []*filing.PersonRecord, business *filing.BusinessRecord) Summary {
	s := Summary{
		FilingID:  f.ID,
		Year:      f.Year,
		Kind:      f.Kind,
		Status:    f.Status,
		Reference: f.Reference,
	}

	var records []pricing.Record
	if f.Kind.Entity() {
		if business != nil {
			records = append(records, pricing.Record{Role: filing.RootRole(f.Kind), Answers: business.Answers})
			s.Records = append(s.Records, RecordSummary{
				Role:          filing.RootRole(f.Kind),
				RecordID:      business.ID,
				Label:         sanitize(business.Name),
				Complete:      business.Complete,
				MissingFields: validation.ValidateRole(sch, business.Answers).TotalMissingFields,
				Sections:      recordSections(sch, business.Answers),
			})
		}
	} else {
		for _, p := range persons {
			records = append(records, pricing.Record{Role: p.Role, Answers: p.Answers})
			s.Records = append(s.Records, RecordSummary{
				Role:          p.Role,
				RecordID:      p.ID,
				Complete:      p.Complete,
				MissingFields: validation.ValidateRole(sch, p.Answers).TotalMissingFields,
				Sections:      recordSections(sch, p.Answers),
			})
		}
	}

	s.Quote = b.calc.Compute(f, sch, records)
	s.AmountDueCents = s.Quote.TotalCents
	if f.Amendment() {
		s.AmountDueCents = pricing.AmountDueCents(s.Quote.TotalCents, f.PaidCents)
		s.NoPaymentDue = s.AmountDueCents == 0
	}
	return s
}

func recordSections(sch schema.Schema, answers map[string]any) []SectionSummary {
	var out []SectionSummary
	for _, sec := range sch.Sections {
		if !visibility.SectionVisible(sec, answers) {
			continue
		}
		summary := SectionSummary{ID: sec.ID, Title: sec.Title}
		for _, q := range visibility.VisibleQuestions(sec, answers) {
			if !visibility.Answered(answers, q.ID) {
				continue
			}
			summary.Answers = append(summary.Answers, Answer{
				QuestionID: q.ID,
				Label:      q.Label,
				Value:      renderValue(q, answers[q.ID]),
			})
		}
		if len(summary.Answers) > 0 {
			out = append(out, summary)
		}
	}
	return out
}

// renderValue formats an answer for display: option values resolve to their
// labels, checkboxes to Yes/No, groups to one line per entry.
func renderValue(q schema.Question, value any) string {
	switch q.Type {
	case schema.TypeCheckbox:
		if visibility.Truthy(value) {
			return "Yes"
		}
		return "No"
	case schema.TypeSelect, schema.TypeRadio:
		return sanitize(visibility.AsString(value))
	case schema.TypeMultiSelect:
		var items []string
		for _, item := range listValues(value) {
			items = append(items, sanitize(item))
		}
		return strings.Join(items, ", ")
	case schema.TypeGroup:
		return renderGroup(q, value)
	default:
		return sanitize(visibility.AsString(value))
	}
}

func renderGroup(q schema.Question, value any) string {
	items := groupItems(value)
	var lines []string
	for i, raw := range items {
		entry, _ := raw.(map[string]any)
		var parts []string
		for _, f := range q.Fields {
			if visibility.Empty(entry[f.Name]) {
				continue
			}
			sub := schema.Question{Type: f.Type, Options: f.Options}
			parts = append(parts, fmt.Sprintf("%s: %s", f.Label, renderValue(sub, entry[f.Name])))
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.Join(parts, ", ")))
	}
	return strings.Join(lines, "\n")
}

// groupItems accepts the group answer shapes the engine and the API layer
// produce: []any of entries, or an already-typed []map[string]any.
func groupItems(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
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

func listValues(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, visibility.AsString(item))
		}
		return out
	default:
		if s := visibility.AsString(value); s != "" {
			return []string{s}
		}
		return nil
	}
}
