package review

import (
	"strings"
	"testing"

	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/schema"
)

func summarySchema() schema.Schema {
	return schema.Schema{
		Year: 2025, Kind: filing.KindIndividual,
		Sections: []schema.Section{
			{
				ID: "identity", Title: "Personal details",
				Questions: []schema.Question{
					{ID: "identity.name", Type: schema.TypeText, Label: "Name", Required: true},
					{ID: "identity.notes", Type: schema.TypeText, Label: "Notes"},
					{ID: "identity.moved", Type: schema.TypeCheckbox, Label: "Moved this year"},
				},
			},
			{
				ID: "extras", Title: "Extras",
				When: &schema.Condition{Question: "identity.moved", Op: schema.OpEquals, Value: true},
				Questions: []schema.Question{
					{ID: "extras.previous", Type: schema.TypeText, Label: "Previous address"},
				},
			},
			{
				ID: "family", Title: "Family",
				Questions: []schema.Question{
					{
						ID: "family.dependents", Type: schema.TypeGroup, Label: "Dependents",
						Fields: []schema.SubField{
							{Name: "name", Type: schema.TypeText, Label: "Full name"},
							{Name: "earns", Type: schema.TypeCheckbox, Label: "Earns income"},
						},
					},
				},
			},
		},
	}
}

func TestBuildSkipsHiddenAndUnanswered(t *testing.T) {
	t.Parallel()

	f := &filing.Filing{ID: "f1", Year: 2025, Kind: filing.KindIndividual, Status: filing.StatusDraft}
	persons := []*filing.PersonRecord{{
		ID: "p1", Role: filing.RolePrimary,
		Answers: map[string]any{
			"identity.name":  "Ada",
			"identity.moved": false,
			// identity.notes unanswered, extras section hidden
		},
	}}

	s := NewBuilder(nil).Build(f, summarySchema(), persons, nil)
	if len(s.Records) != 1 {
		t.Fatalf("records = %d", len(s.Records))
	}
	secs := s.Records[0].Sections
	if len(secs) != 1 || secs[0].ID != "identity" {
		t.Fatalf("sections = %+v, want only identity", secs)
	}
	var keys []string
	for _, a := range secs[0].Answers {
		keys = append(keys, a.QuestionID)
	}
	// The unanswered notes question is omitted; the explicit false checkbox
	// renders as No.
	want := map[string]bool{"identity.name": true, "identity.moved": true}
	for _, k := range keys {
		if !want[k] {
			t.Fatalf("unexpected answer %s", k)
		}
	}
	for _, a := range secs[0].Answers {
		if a.QuestionID == "identity.moved" && a.Value != "No" {
			t.Fatalf("checkbox rendered as %q", a.Value)
		}
	}
}

func TestBuildSanitizesFreeText(t *testing.T) {
	t.Parallel()

	f := &filing.Filing{ID: "f1", Year: 2025, Kind: filing.KindIndividual}
	persons := []*filing.PersonRecord{{
		ID: "p1", Role: filing.RolePrimary,
		Answers: map[string]any{
			"identity.name": `Ada <script>alert("x")</script>`,
		},
	}}

	s := NewBuilder(nil).Build(f, summarySchema(), persons, nil)
	value := s.Records[0].Sections[0].Answers[0].Value
	if strings.Contains(value, "<script>") {
		t.Fatalf("markup survived sanitization: %q", value)
	}
	if !strings.Contains(value, "Ada") {
		t.Fatalf("text content lost: %q", value)
	}
}

func TestBuildRendersGroups(t *testing.T) {
	t.Parallel()

	f := &filing.Filing{ID: "f1", Year: 2025, Kind: filing.KindIndividual}
	persons := []*filing.PersonRecord{{
		ID: "p1", Role: filing.RolePrimary,
		Answers: map[string]any{
			"identity.name": "Ada",
			"family.dependents": []any{
				map[string]any{"name": "Sam", "earns": true},
				map[string]any{"name": "Kim", "earns": false},
			},
		},
	}}

	s := NewBuilder(nil).Build(f, summarySchema(), persons, nil)
	var group string
	for _, sec := range s.Records[0].Sections {
		for _, a := range sec.Answers {
			if a.QuestionID == "family.dependents" {
				group = a.Value
			}
		}
	}
	for _, fragment := range []string{"1. ", "Full name: Sam", "Earns income: Yes", "2. ", "Full name: Kim", "Earns income: No"} {
		if !strings.Contains(group, fragment) {
			t.Fatalf("group rendering %q missing %q", group, fragment)
		}
	}
}

func TestBuildRendersTypedGroupSlices(t *testing.T) {
	t.Parallel()

	f := &filing.Filing{ID: "f1", Year: 2025, Kind: filing.KindIndividual}
	persons := []*filing.PersonRecord{{
		ID: "p1", Role: filing.RolePrimary,
		Answers: map[string]any{
			"identity.name": "Ada",
			"family.dependents": []map[string]any{
				{"name": "Sam", "earns": true},
			},
		},
	}}

	s := NewBuilder(nil).Build(f, summarySchema(), persons, nil)
	var group string
	for _, sec := range s.Records[0].Sections {
		for _, a := range sec.Answers {
			if a.QuestionID == "family.dependents" {
				group = a.Value
			}
		}
	}
	if !strings.Contains(group, "Full name: Sam") {
		t.Fatalf("typed slice rendered as %q", group)
	}
}

func TestBuildAmendmentAmounts(t *testing.T) {
	t.Parallel()

	f := &filing.Filing{
		ID: "f1", Year: 2025, Kind: filing.KindIndividual,
		Status: filing.StatusInProgress, Reference: "JJ-AB12CD", PaidCents: 100000,
	}
	persons := []*filing.PersonRecord{{
		ID: "p1", Role: filing.RolePrimary,
		Answers: map[string]any{"identity.name": "Ada"},
	}}

	s := NewBuilder(nil).Build(f, summarySchema(), persons, nil)
	if s.Quote.TotalCents <= 0 {
		t.Fatalf("quote = %+v", s.Quote)
	}
	if s.AmountDueCents != 0 || !s.NoPaymentDue {
		t.Fatalf("due = %d, NoPaymentDue = %v; paid covers the total", s.AmountDueCents, s.NoPaymentDue)
	}
}

func TestBuildEntityRecord(t *testing.T) {
	t.Parallel()

	sch := schema.Schema{
		Year: 2025, Kind: filing.KindCorporate,
		Sections: []schema.Section{
			{ID: "entity", Title: "Entity", Questions: []schema.Question{
				{ID: "entity.legalName", Type: schema.TypeText, Label: "Legal name", Required: true},
			}},
		},
	}
	f := &filing.Filing{ID: "f1", Year: 2025, Kind: filing.KindCorporate}
	biz := &filing.BusinessRecord{
		ID: "b1", Name: "Acme Ltd", Registration: "123456789",
		Answers: map[string]any{"entity.legalName": "Acme Ltd"},
	}

	s := NewBuilder(nil).Build(f, sch, nil, biz)
	if len(s.Records) != 1 {
		t.Fatalf("records = %d", len(s.Records))
	}
	rec := s.Records[0]
	if rec.Role != filing.RoleCorporateEntity || rec.Label != "Acme Ltd" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.MissingFields != 0 {
		t.Fatalf("MissingFields = %d", rec.MissingFields)
	}
}
