package filing

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies which questionnaire family a filing belongs to.
type Kind string

const (
	KindIndividual Kind = "INDIVIDUAL"
	KindCorporate  Kind = "CORPORATE"
	KindTrust      Kind = "TRUST"
)

// Entity reports whether the kind is answered by a single business record
// rather than one or more person records.
func (k Kind) Entity() bool {
	return k == KindCorporate || k == KindTrust
}

// Valid reports whether the kind is one of the declared variants.
func (k Kind) Valid() bool {
	switch k {
	case KindIndividual, KindCorporate, KindTrust:
		return true
	}
	return false
}

// ParseKind normalises a user-supplied kind string.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", fmt.Errorf("filing: unknown kind %q", raw)
	}
	return k, nil
}

// Status is the lifecycle state of a Filing. Only the submission protocol
// mutates it.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusCompleted   Status = "COMPLETED"
	StatusRejected    Status = "REJECTED"
)

// Resumable reports whether a persisted progress snapshot may be restored.
func (s Status) Resumable() bool {
	return s == StatusDraft || s == StatusInProgress
}

// Role identifies who a record answers for.
type Role string

const (
	RolePrimary         Role = "primary"
	RoleSpouse          Role = "spouse"
	RoleDependent       Role = "dependent"
	RoleCorporateEntity Role = "corporate-entity"
	RoleTrustEntity     Role = "trust-entity"
)

// RootRole returns the role that owns the first section for a kind.
func RootRole(kind Kind) Role {
	switch kind {
	case KindCorporate:
		return RoleCorporateEntity
	case KindTrust:
		return RoleTrustEntity
	default:
		return RolePrimary
	}
}

// RoleRef is the closed variant used to address the active record. It pairs
// a role with the record it resolves to so dispatch never relies on
// kind-specific boolean flags.
type RoleRef struct {
	Role     Role   `json:"role"`
	RecordID string `json:"recordId"`
}

// Zero reports whether the ref points at nothing.
func (r RoleRef) Zero() bool {
	return r.Role == "" && r.RecordID == ""
}

// Progress is the resumable wizard-position snapshot stored on a Filing.
type Progress struct {
	Phase          string `json:"phase"`
	Section        int    `json:"section"`
	Role           Role   `json:"role,omitempty"`
	RecordID       string `json:"recordId,omitempty"`
	DependentIndex int    `json:"dependentIndex,omitempty"`
}

// Filing is the top-level aggregate for one tax year and one
// entity/household. Status and Reference are owned by the submission
// protocol; the wizard only reads them.
type Filing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Year        int       `json:"year"`
	Kind        Kind      `json:"kind"`
	Status      Status    `json:"status"`
	Reference   string    `json:"reference,omitempty"`
	TotalCents  int64     `json:"totalCents"`
	PaidCents   int64     `json:"paidCents"`
	Progress    *Progress `json:"progress,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Amendment reports whether this filing has been submitted and paid before.
// Amendments keep their reference number and only owe the delta.
func (f *Filing) Amendment() bool {
	return f != nil && f.Reference != "" && f.PaidCents > 0
}

// PersonRecord holds one individual's answers inside an INDIVIDUAL filing.
type PersonRecord struct {
	ID       string         `json:"id"`
	FilingID string         `json:"filingId"`
	Role     Role           `json:"role"`
	Ordinal  int            `json:"ordinal,omitempty"`
	Answers  map[string]any `json:"answers"`
	Complete bool           `json:"complete"`
}

// Clone returns a deep-enough copy: the answer map is copied, values are
// shared. Answer values are treated as immutable once stored.
func (p *PersonRecord) Clone() *PersonRecord {
	if p == nil {
		return nil
	}
	out := *p
	out.Answers = cloneAnswers(p.Answers)
	return &out
}

// BusinessRecord holds the single answer set for a CORPORATE or TRUST
// filing. Registration is the identifying key the duplicate gate matches on.
type BusinessRecord struct {
	ID           string         `json:"id"`
	FilingID     string         `json:"filingId"`
	Name         string         `json:"name"`
	Registration string         `json:"registration"`
	Answers      map[string]any `json:"answers"`
	Complete     bool           `json:"complete"`
}

// Clone mirrors PersonRecord.Clone.
func (b *BusinessRecord) Clone() *BusinessRecord {
	if b == nil {
		return nil
	}
	out := *b
	out.Answers = cloneAnswers(b.Answers)
	return &out
}

func cloneAnswers(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
