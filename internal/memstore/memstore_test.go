package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/store"
)

func TestFilingRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	f := &filing.Filing{OwnerID: "owner-1", Year: 2025, Kind: filing.KindIndividual}
	if err := s.CreateFiling(ctx, f); err != nil {
		t.Fatalf("CreateFiling: %v", err)
	}
	if f.ID == "" {
		t.Fatal("CreateFiling did not assign an ID")
	}
	if f.Status != filing.StatusDraft {
		t.Fatalf("Status = %s, want DRAFT", f.Status)
	}

	got, err := s.Filing(ctx, f.ID)
	if err != nil {
		t.Fatalf("Filing: %v", err)
	}
	// Mutating the returned copy must not reach the store.
	got.Status = filing.StatusRejected
	again, _ := s.Filing(ctx, f.ID)
	if again.Status != filing.StatusDraft {
		t.Fatal("store shares filing pointers with callers")
	}

	if _, err := s.Filing(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing filing: got %v, want ErrNotFound", err)
	}
	if err := s.UpdateFiling(ctx, &filing.Filing{ID: "nope"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update missing filing: got %v, want ErrNotFound", err)
	}
}

func TestPersonsSortedByRoleThenOrdinal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	f := &filing.Filing{OwnerID: "o", Year: 2025, Kind: filing.KindIndividual}
	if err := s.CreateFiling(ctx, f); err != nil {
		t.Fatal(err)
	}

	add := func(role filing.Role, ordinal int) {
		t.Helper()
		p := &filing.PersonRecord{FilingID: f.ID, Role: role, Ordinal: ordinal}
		if err := s.CreatePerson(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	add(filing.RoleDependent, 1)
	add(filing.RoleSpouse, 0)
	add(filing.RoleDependent, 0)
	add(filing.RolePrimary, 0)

	got, err := s.Persons(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder := []filing.Role{filing.RolePrimary, filing.RoleSpouse, filing.RoleDependent, filing.RoleDependent}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d persons", len(got))
	}
	for i, p := range got {
		if p.Role != wantOrder[i] {
			t.Fatalf("position %d has role %s, want %s", i, p.Role, wantOrder[i])
		}
	}
	if got[2].Ordinal != 0 || got[3].Ordinal != 1 {
		t.Fatal("dependents not ordered by ordinal")
	}

	// Answer-map isolation.
	got[0].Answers["k"] = "v"
	fresh, _ := s.Persons(ctx, f.ID)
	if _, leaked := fresh[0].Answers["k"]; leaked {
		t.Fatal("store shares answer maps with callers")
	}
}

func TestBusinessRoundTripAndSiblings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	mk := func(owner string, year int, status filing.Status, registration string) *filing.Filing {
		t.Helper()
		f := &filing.Filing{OwnerID: owner, Year: year, Kind: filing.KindCorporate, Status: status}
		if err := s.CreateFiling(ctx, f); err != nil {
			t.Fatal(err)
		}
		b := &filing.BusinessRecord{FilingID: f.ID, Name: "Acme", Registration: registration}
		if err := s.CreateBusiness(ctx, b); err != nil {
			t.Fatal(err)
		}
		return f
	}

	f1 := mk("owner-1", 2025, filing.StatusDraft, "123456789")
	mk("owner-1", 2024, filing.StatusCompleted, "123456789")
	mk("owner-2", 2025, filing.StatusDraft, "999999999")

	if _, err := s.Business(ctx, f1.ID); err != nil {
		t.Fatalf("Business: %v", err)
	}
	if _, err := s.Business(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing business: got %v, want ErrNotFound", err)
	}

	siblings, err := s.SiblingBusinesses(ctx, "owner-1", filing.KindCorporate)
	if err != nil {
		t.Fatal(err)
	}
	if len(siblings) != 2 {
		t.Fatalf("got %d siblings, want the 2 owner-1 corporate records", len(siblings))
	}
	for _, sib := range siblings {
		if !sib.YearKnown {
			t.Fatalf("resolved sibling %s lost its year", sib.RecordID)
		}
	}
}

func TestSiblingWithUnresolvedFilingHasUnknownYear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	b := &filing.BusinessRecord{FilingID: "orphaned-filing", Registration: "123456789"}
	if err := s.CreateBusiness(ctx, b); err != nil {
		t.Fatal(err)
	}

	siblings, err := s.SiblingBusinesses(ctx, "anyone", filing.KindCorporate)
	if err != nil {
		t.Fatal(err)
	}
	if len(siblings) != 1 {
		t.Fatalf("got %d siblings", len(siblings))
	}
	if siblings[0].YearKnown {
		t.Fatal("orphaned sibling should report YearKnown=false")
	}
}

func TestSaveProgressMirrorsOntoFiling(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()

	f := &filing.Filing{OwnerID: "o", Year: 2025, Kind: filing.KindIndividual}
	if err := s.CreateFiling(ctx, f); err != nil {
		t.Fatal(err)
	}

	p := filing.Progress{Phase: "ROLE_ACTIVE", Section: 2, Role: filing.RolePrimary, RecordID: "p1"}
	if err := s.SaveProgress(ctx, f.ID, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.Filing(ctx, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Progress == nil || got.Progress.Section != 2 || got.Progress.RecordID != "p1" {
		t.Fatalf("Progress = %+v", got.Progress)
	}
}
