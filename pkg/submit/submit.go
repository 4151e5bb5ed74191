// Package submit implements the submission protocol: the completeness gate,
// the duplicate-identity gate for entity filings, and the ordered commit
// that moves a filing and its children to UNDER_REVIEW. Outcomes are values,
// not errors, so callers can layer retry policy on top without unpicking
// error chains.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/pricing"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/store"
	"github.com/taxglide/filingwizard/pkg/validation"
)

// Outcome classifies a submission attempt.
type Outcome string

const (
	// OutcomeOK: the filing is now UNDER_REVIEW.
	OutcomeOK Outcome = "ok"
	// OutcomeRetryable: a backend call failed; re-running the whole
	// sequence is safe and is the expected recovery.
	OutcomeRetryable Outcome = "retryable"
	// OutcomeFatal: a precondition failed; retrying without changing the
	// filing will fail again. Gate or Conflict carries the detail.
	OutcomeFatal Outcome = "fatal"
)

// PersonGate describes one person who cannot be marked complete yet.
type PersonGate struct {
	RecordID      string                  `json:"recordId"`
	Role          filing.Role             `json:"role"`
	Ordinal       int                     `json:"ordinal,omitempty"`
	MissingFields int                     `json:"missingFields"`
	Sections      []validation.SectionRef `json:"sections,omitempty"`
}

// GateReport aggregates completeness failures across every record of the
// filing, so the user sees the whole picture instead of the first problem.
type GateReport struct {
	Persons            []PersonGate `json:"persons,omitempty"`
	TotalMissingFields int          `json:"totalMissingFields"`
}

// Conflict reports a duplicate-identity match against a sibling filing.
type Conflict struct {
	RecordID     string        `json:"recordId"`
	FilingID     string        `json:"filingId"`
	Registration string        `json:"registration"`
	Status       filing.Status `json:"status,omitempty"`
	Message      string        `json:"message"`
}

// Result is the structured outcome of one submission attempt.
type Result struct {
	Outcome   Outcome        `json:"outcome"`
	Reason    string         `json:"reason,omitempty"`
	Reference string         `json:"reference,omitempty"`
	Quote     *pricing.Quote `json:"quote,omitempty"`
	Gate      *GateReport    `json:"gate,omitempty"`
	Conflict  *Conflict      `json:"conflict,omitempty"`
}

// OK reports whether the submission committed.
func (r Result) OK() bool { return r.Outcome == OutcomeOK }

// Fatal reports whether retrying the same submission cannot help.
func (r Result) Fatal() bool { return r.Outcome == OutcomeFatal }

// Submitter runs the protocol against a store.
type Submitter struct {
	store   store.Store
	schemas schema.Provider
	calc    *pricing.Calculator
	now     func() time.Time
	newRef  func(time.Time) string
}

// Option customises a Submitter.
type Option func(*Submitter)

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Submitter) { s.now = now }
}

// WithReferenceFunc overrides reference-number generation.
func WithReferenceFunc(fn func(time.Time) string) Option {
	return func(s *Submitter) { s.newRef = fn }
}

// New builds a Submitter.
func New(st store.Store, schemas schema.Provider, calc *pricing.Calculator, options ...Option) *Submitter {
	s := &Submitter{
		store:   st,
		schemas: schemas,
		calc:    calc,
		now:     time.Now,
		newRef:  filing.NewReference,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Submit runs preconditions in order and, only once every gate passes,
// commits: children first, then the parent. Commit steps are idempotent on
// already-terminal values, so a partially-applied commit is recovered by
// re-running Submit end to end.
func (s *Submitter) Submit(ctx context.Context, filingID string) Result {
	f, err := s.store.Filing(ctx, filingID)
	if err != nil {
		return storeFailure("load filing", err)
	}

	switch f.Status {
	case filing.StatusUnderReview, filing.StatusApproved, filing.StatusCompleted:
		return Result{Outcome: OutcomeFatal, Reason: "filing has already been submitted"}
	}

	sch, err := s.schemas.Schema(f.Year, f.Kind)
	if err != nil {
		return Result{Outcome: OutcomeFatal, Reason: fmt.Sprintf("no questionnaire for %s %d", f.Kind, f.Year)}
	}

	if f.Kind.Entity() {
		return s.submitEntity(ctx, f, sch)
	}
	return s.submitIndividual(ctx, f, sch)
}

func (s *Submitter) submitIndividual(ctx context.Context, f *filing.Filing, sch schema.Schema) Result {
	persons, err := s.store.Persons(ctx, f.ID)
	if err != nil {
		return storeFailure("load persons", err)
	}
	if len(persons) == 0 {
		return Result{Outcome: OutcomeFatal, Reason: "filing has no person records"}
	}

	// Completeness gate: every person independently, failures aggregated.
	report := GateReport{}
	for _, p := range persons {
		role := validation.ValidateRole(sch, p.Answers)
		if role.Valid {
			continue
		}
		report.Persons = append(report.Persons, PersonGate{
			RecordID:      p.ID,
			Role:          p.Role,
			Ordinal:       p.Ordinal,
			MissingFields: role.TotalMissingFields,
			Sections:      role.MissingSections,
		})
		report.TotalMissingFields += role.TotalMissingFields
	}
	if len(report.Persons) > 0 {
		return Result{
			Outcome: OutcomeFatal,
			Reason:  gateReason(report),
			Gate:    &report,
		}
	}

	records := make([]pricing.Record, 0, len(persons))
	for _, p := range persons {
		records = append(records, pricing.Record{Role: p.Role, Answers: p.Answers})
	}

	return s.commit(ctx, f, sch, records, func() error {
		for _, p := range persons {
			if p.Complete {
				continue
			}
			p.Complete = true
			if err := s.store.UpdatePerson(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Submitter) submitEntity(ctx context.Context, f *filing.Filing, sch schema.Schema) Result {
	biz, err := s.store.Business(ctx, f.ID)
	if err != nil {
		return storeFailure("load business record", err)
	}

	role := validation.ValidateRole(sch, biz.Answers)
	missingIdentity := strings.TrimSpace(biz.Registration) == "" || strings.TrimSpace(biz.Name) == ""
	if !role.Valid || missingIdentity {
		report := GateReport{TotalMissingFields: role.TotalMissingFields}
		gate := PersonGate{
			RecordID:      biz.ID,
			Role:          filing.RootRole(f.Kind),
			MissingFields: role.TotalMissingFields,
			Sections:      role.MissingSections,
		}
		if missingIdentity {
			gate.MissingFields++
			report.TotalMissingFields++
		}
		report.Persons = append(report.Persons, gate)
		reason := gateReason(report)
		if missingIdentity {
			reason = "registration number and name are required before submission"
		}
		return Result{Outcome: OutcomeFatal, Reason: reason, Gate: &report}
	}

	// Duplicate-identity gate. The sibling query must complete before any
	// write happens; nothing below mutates until commit.
	if blocked := s.duplicateGate(ctx, f, biz); blocked != nil {
		return *blocked
	}

	records := []pricing.Record{{Role: filing.RootRole(f.Kind), Answers: biz.Answers}}
	return s.commit(ctx, f, sch, records, func() error {
		if biz.Complete {
			return nil
		}
		biz.Complete = true
		return s.store.UpdateBusiness(ctx, biz)
	})
}

// duplicateGate returns nil when submission may proceed, otherwise the
// Result to surface (a conflict, or a retryable query failure).
func (s *Submitter) duplicateGate(ctx context.Context, f *filing.Filing, biz *filing.BusinessRecord) *Result {
	siblings, err := s.store.SiblingBusinesses(ctx, f.OwnerID, f.Kind)
	if err != nil {
		failed := storeFailure("duplicate check", err)
		return &failed
	}

	key := NormalizeIdentity(biz.Registration)
	for _, sib := range siblings {
		if sib.RecordID == biz.ID {
			continue
		}
		if NormalizeIdentity(sib.Registration) != key {
			continue
		}
		// An indeterminate year counts as a match: better to block than to
		// let a silent duplicate through.
		if sib.YearKnown && sib.Year != f.Year {
			continue
		}
		conflict := &Conflict{
			RecordID:     sib.RecordID,
			FilingID:     sib.FilingID,
			Registration: biz.Registration,
			Status:       sib.Status,
			Message:      conflictMessage(sib.Status),
		}
		return &Result{Outcome: OutcomeFatal, Reason: conflict.Message, Conflict: conflict}
	}
	return nil
}

// commit runs the mutation sequence: (a) children complete, (b) reference
// resolved, (c) parent updated. Each step is idempotent on already-applied
// values.
func (s *Submitter) commit(ctx context.Context, f *filing.Filing, sch schema.Schema, records []pricing.Record, completeChildren func() error) Result {
	if err := completeChildren(); err != nil {
		return storeFailure("mark records complete", err)
	}

	// A reference, once assigned, survives every later resubmission.
	reference := f.Reference
	if reference == "" {
		reference = s.newRef(s.now())
	}

	quote := s.calc.Compute(f, sch, records)

	f.Reference = reference
	f.Status = filing.StatusUnderReview
	f.TotalCents = quote.TotalCents
	f.PaidCents = quote.TotalCents
	f.SubmittedAt = s.now().UTC()
	if err := s.store.UpdateFiling(ctx, f); err != nil {
		return storeFailure("update filing", err)
	}

	return Result{Outcome: OutcomeOK, Reference: reference, Quote: &quote}
}

// NormalizeIdentity strips all whitespace and case-folds an identifying key
// so "123 456 789" and "123456789" compare equal.
func NormalizeIdentity(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), ""))
}

func conflictMessage(status filing.Status) string {
	switch status {
	case filing.StatusDraft, filing.StatusInProgress:
		return "a filing for this registration number is already in progress"
	case filing.StatusUnderReview:
		return "a filing for this registration number is already under review"
	case filing.StatusApproved, filing.StatusCompleted:
		return "a filing for this registration number has already been completed"
	case filing.StatusRejected:
		return "a filing for this registration number was flagged; contact support before resubmitting"
	default:
		return "another filing already uses this registration number"
	}
}

func gateReason(report GateReport) string {
	people := len(report.Persons)
	if people == 1 {
		return fmt.Sprintf("1 return is incomplete: %d required fields are missing", report.TotalMissingFields)
	}
	return fmt.Sprintf("%d returns are incomplete: %d required fields are missing", people, report.TotalMissingFields)
}

func storeFailure(op string, err error) Result {
	if errors.Is(err, store.ErrNotFound) {
		return Result{Outcome: OutcomeFatal, Reason: op + ": record not found"}
	}
	return Result{Outcome: OutcomeRetryable, Reason: fmt.Sprintf("%s: %v", op, err)}
}
