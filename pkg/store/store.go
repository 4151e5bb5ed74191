// Package store declares the persistence contracts the wizard core consumes.
// Implementations only promise per-record atomicity; the submission protocol
// sequences its writes so that no failure leaves an inconsistent status.
package store

import (
	"context"
	"errors"

	"github.com/taxglide/filingwizard/pkg/filing"
)

// ErrNotFound reports a missing record. Every other error from a store is
// treated as a transport failure and surfaced as retryable.
var ErrNotFound = errors.New("store: not found")

// FilingStore persists the parent aggregate.
type FilingStore interface {
	CreateFiling(ctx context.Context, f *filing.Filing) error
	Filing(ctx context.Context, id string) (*filing.Filing, error)
	UpdateFiling(ctx context.Context, f *filing.Filing) error
}

// PersonStore persists person records for INDIVIDUAL filings.
type PersonStore interface {
	CreatePerson(ctx context.Context, p *filing.PersonRecord) error
	Persons(ctx context.Context, filingID string) ([]*filing.PersonRecord, error)
	UpdatePerson(ctx context.Context, p *filing.PersonRecord) error
}

// SiblingBusiness is the projection the duplicate-identity gate inspects.
// YearKnown is false when the sibling's filing could not be resolved; the
// gate treats an unknown year as a match, preferring a block over a silent
// duplicate.
type SiblingBusiness struct {
	RecordID     string
	FilingID     string
	Registration string
	Year         int
	YearKnown    bool
	Status       filing.Status
}

// BusinessStore persists the single business record of entity filings and
// answers the sibling query the duplicate gate needs.
type BusinessStore interface {
	CreateBusiness(ctx context.Context, b *filing.BusinessRecord) error
	Business(ctx context.Context, filingID string) (*filing.BusinessRecord, error)
	UpdateBusiness(ctx context.Context, b *filing.BusinessRecord) error

	// SiblingBusinesses lists business records of the same kind belonging
	// to the same owner, across all of that owner's filings.
	SiblingBusinesses(ctx context.Context, ownerID string, kind filing.Kind) ([]SiblingBusiness, error)
}

// ProgressStore persists the resumable wizard snapshot. Saves are
// best-effort: callers log failures instead of surfacing them.
type ProgressStore interface {
	SaveProgress(ctx context.Context, filingID string, p filing.Progress) error
}

// Store bundles every contract the engine and submission protocol need.
type Store interface {
	FilingStore
	PersonStore
	BusinessStore
	ProgressStore
}
