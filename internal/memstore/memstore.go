// Package memstore is the in-memory store.Store used by the binaries and
// tests. Records are cloned on the way in and out so callers never share
// maps with the store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/store"
)

// Store keeps everything in maps guarded by one RWMutex.
type Store struct {
	mu         sync.RWMutex
	filings    map[string]*filing.Filing
	persons    map[string]*filing.PersonRecord
	businesses map[string]*filing.BusinessRecord
	progress   map[string]filing.Progress
}

// New returns an empty store.
func New() *Store {
	return &Store{
		filings:    make(map[string]*filing.Filing),
		persons:    make(map[string]*filing.PersonRecord),
		businesses: make(map[string]*filing.BusinessRecord),
		progress:   make(map[string]filing.Progress),
	}
}

var _ store.Store = (*Store)(nil)

// CreateFiling assigns an ID and timestamps if missing.
func (s *Store) CreateFiling(_ context.Context, f *filing.Filing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if f.Status == "" {
		f.Status = filing.StatusDraft
	}
	s.filings[f.ID] = cloneFiling(f)
	return nil
}

func (s *Store) Filing(_ context.Context, id string) (*filing.Filing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.filings[id]
	if !ok {
		return nil, fmt.Errorf("filing %s: %w", id, store.ErrNotFound)
	}
	return cloneFiling(f), nil
}

func (s *Store) UpdateFiling(_ context.Context, f *filing.Filing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.filings[f.ID]; !ok {
		return fmt.Errorf("filing %s: %w", f.ID, store.ErrNotFound)
	}
	f.UpdatedAt = time.Now().UTC()
	s.filings[f.ID] = cloneFiling(f)
	return nil
}

func (s *Store) CreatePerson(_ context.Context, p *filing.PersonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Answers == nil {
		p.Answers = make(map[string]any)
	}
	s.persons[p.ID] = p.Clone()
	return nil
}

func (s *Store) Persons(_ context.Context, filingID string) ([]*filing.PersonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*filing.PersonRecord
	for _, p := range s.persons {
		if p.FilingID == filingID {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return roleOrder(out[i].Role) < roleOrder(out[j].Role)
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out, nil
}

func (s *Store) UpdatePerson(_ context.Context, p *filing.PersonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[p.ID]; !ok {
		return fmt.Errorf("person %s: %w", p.ID, store.ErrNotFound)
	}
	s.persons[p.ID] = p.Clone()
	return nil
}

func (s *Store) CreateBusiness(_ context.Context, b *filing.BusinessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Answers == nil {
		b.Answers = make(map[string]any)
	}
	s.businesses[b.ID] = b.Clone()
	return nil
}

func (s *Store) Business(_ context.Context, filingID string) (*filing.BusinessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.businesses {
		if b.FilingID == filingID {
			return b.Clone(), nil
		}
	}
	return nil, fmt.Errorf("business for filing %s: %w", filingID, store.ErrNotFound)
}

func (s *Store) UpdateBusiness(_ context.Context, b *filing.BusinessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.businesses[b.ID]; !ok {
		return fmt.Errorf("business %s: %w", b.ID, store.ErrNotFound)
	}
	s.businesses[b.ID] = b.Clone()
	return nil
}

func (s *Store) SiblingBusinesses(_ context.Context, ownerID string, kind filing.Kind) ([]store.SiblingBusiness, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.SiblingBusiness
	for _, b := range s.businesses {
		f, ok := s.filings[b.FilingID]
		if ok && (f.OwnerID != ownerID || f.Kind != kind) {
			continue
		}
		sibling := store.SiblingBusiness{
			RecordID:     b.ID,
			FilingID:     b.FilingID,
			Registration: b.Registration,
		}
		if ok {
			sibling.Year = f.Year
			sibling.YearKnown = true
			sibling.Status = f.Status
		}
		out = append(out, sibling)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out, nil
}

func (s *Store) SaveProgress(_ context.Context, filingID string, p filing.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.filings[filingID]; ok {
		snapshot := p
		f.Progress = &snapshot
	}
	s.progress[filingID] = p
	return nil
}

func roleOrder(r filing.Role) int {
	switch r {
	case filing.RolePrimary:
		return 0
	case filing.RoleSpouse:
		return 1
	case filing.RoleDependent:
		return 2
	default:
		return 3
	}
}

func cloneFiling(f *filing.Filing) *filing.Filing {
	out := *f
	if f.Progress != nil {
		p := *f.Progress
		out.Progress = &p
	}
	return &out
}
