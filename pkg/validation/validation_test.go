package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/taxglide/filingwizard/pkg/schema"
)

func textQ(id string, required bool) schema.Question {
	return schema.Question{ID: id, Type: schema.TypeText, Label: id, Required: required}
}

func TestValidateSectionRequired(t *testing.T) {
	t.Parallel()

	sec := schema.Section{
		ID: "identity",
		Questions: []schema.Question{
			textQ("name", true),
			textQ("nickname", false),
		},
	}

	cases := []struct {
		name    string
		answers map[string]any
		wantErr int
	}{
		{"missing required", map[string]any{}, 1},
		{"nil required", map[string]any{"name": nil}, 1},
		{"blank required", map[string]any{"name": "   "}, 1},
		{"present", map[string]any{"name": "Ada"}, 0},
		{"optional absent", map[string]any{"name": "Ada", "nickname": ""}, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ValidateSection(sec, tc.answers)
			if len(got.Errors) != tc.wantErr {
				t.Fatalf("errors = %+v, want %d", got.Errors, tc.wantErr)
			}
			if got.Valid != (tc.wantErr == 0) {
				t.Fatalf("Valid = %v with %d errors", got.Valid, len(got.Errors))
			}
		})
	}
}

func TestValidateSectionTypes(t *testing.T) {
	t.Parallel()

	sec := schema.Section{
		ID: "mixed",
		Questions: []schema.Question{
			{ID: "amount", Type: schema.TypeNumber},
			{ID: "born", Type: schema.TypeDate},
			{ID: "region", Type: schema.TypeSelect, Options: []string{"ON", "QC"}},
			{ID: "credits", Type: schema.TypeMultiSelect, Options: []string{"a", "b"}},
		},
	}

	bad := ValidateSection(sec, map[string]any{
		"amount":  "soon",
		"born":    "31/12/2025",
		"region":  "TX",
		"credits": []string{"a", "z"},
	})
	if len(bad.Errors) != 4 {
		t.Fatalf("errors = %+v, want 4", bad.Errors)
	}

	good := ValidateSection(sec, map[string]any{
		"amount":  "42.50",
		"born":    "2025-12-31",
		"region":  "ON",
		"credits": []string{"a", "b"},
	})
	if !good.Valid {
		t.Fatalf("unexpected errors: %+v", good.Errors)
	}
}

func TestValidateSectionSkipsHiddenQuestions(t *testing.T) {
	t.Parallel()

	sec := schema.Section{
		ID: "income",
		Questions: []schema.Question{
			{ID: "selfEmployed", Type: schema.TypeCheckbox},
			{
				ID: "net", Type: schema.TypeNumber, Required: true,
				When: &schema.Condition{Question: "selfEmployed", Op: schema.OpEquals, Value: true},
			},
		},
	}

	if got := ValidateSection(sec, map[string]any{"selfEmployed": false}); !got.Valid {
		t.Fatalf("hidden required question still validated: %+v", got.Errors)
	}
	if got := ValidateSection(sec, map[string]any{"selfEmployed": true}); got.Valid {
		t.Fatal("visible required question not enforced")
	}
}

func TestValidateGroupKeys(t *testing.T) {
	t.Parallel()

	sec := schema.Section{
		ID: "family",
		Questions: []schema.Question{{
			ID:   "dependents",
			Type: schema.TypeGroup,
			Fields: []schema.SubField{
				{Name: "name", Type: schema.TypeText, Label: "Full name", Required: true},
				{Name: "born", Type: schema.TypeDate, Label: "Date of birth", Required: true},
			},
		}},
	}

	got := ValidateSection(sec, map[string]any{
		"dependents": []any{
			map[string]any{"name": "Sam", "born": "2015-03-04"},
			map[string]any{"name": "", "born": "not-a-date"},
		},
	})

	want := []FieldError{
		{Key: "dependents.1.name", Message: "Full name is required"},
		{Key: "dependents.1.born", Message: "enter a date as YYYY-MM-DD"},
	}
	if diff := cmp.Diff(want, got.Errors); diff != "" {
		t.Fatalf("group errors (-want +got):\n%s", diff)
	}
}

func TestValidateRole(t *testing.T) {
	t.Parallel()

	sch := schema.Schema{
		Year: 2025, Kind: "INDIVIDUAL",
		Sections: []schema.Section{
			{ID: "one", Title: "One", Questions: []schema.Question{textQ("a", true)}},
			{
				ID: "hidden", Title: "Hidden",
				When:      &schema.Condition{Question: "a", Op: schema.OpEquals, Value: "open"},
				Questions: []schema.Question{textQ("h", true)},
			},
			{ID: "two", Title: "Two", Questions: []schema.Question{textQ("b", true), textQ("c", true)}},
		},
	}

	got := ValidateRole(sch, map[string]any{"a": "done"})
	if got.Valid {
		t.Fatal("role with missing fields reported valid")
	}
	// The hidden section is excluded: "two" is the second visible section.
	if got.FirstMissingIndex != 1 {
		t.Fatalf("FirstMissingIndex = %d, want 1", got.FirstMissingIndex)
	}
	if got.TotalMissingFields != 2 {
		t.Fatalf("TotalMissingFields = %d, want 2", got.TotalMissingFields)
	}
	wantSections := []SectionRef{{ID: "two", Title: "Two"}}
	if diff := cmp.Diff(wantSections, got.MissingSections); diff != "" {
		t.Fatalf("MissingSections (-want +got):\n%s", diff)
	}

	complete := ValidateRole(sch, map[string]any{"a": "done", "b": "x", "c": "y"})
	if !complete.Valid || complete.FirstMissingIndex != -1 {
		t.Fatalf("complete role: %+v", complete)
	}
}

func TestValidateRoleHiddenSectionBecomesRelevant(t *testing.T) {
	t.Parallel()

	sch := schema.Schema{
		Year: 2025, Kind: "INDIVIDUAL",
		Sections: []schema.Section{
			{ID: "one", Title: "One", Questions: []schema.Question{textQ("a", true)}},
			{
				ID: "gated", Title: "Gated",
				When:      &schema.Condition{Question: "a", Op: schema.OpEquals, Value: "open"},
				Questions: []schema.Question{textQ("g", true)},
			},
		},
	}

	got := ValidateRole(sch, map[string]any{"a": "open"})
	if got.Valid {
		t.Fatal("newly visible section's required field not enforced")
	}
	if got.FirstMissingIndex != 1 {
		t.Fatalf("FirstMissingIndex = %d, want 1", got.FirstMissingIndex)
	}
}
