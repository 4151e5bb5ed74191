package schema

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/taxglide/filingwizard/pkg/filing"
)

const minimalDoc = `
year: 2025
kind: INDIVIDUAL
sections:
  - id: identity
    title: Identity
    questions:
      - id: identity.name
        type: text
        label: Name
        required: true
      - id: identity.status
        type: select
        label: Status
        options: [single, married]
`

func TestParseMinimalDocument(t *testing.T) {
	t.Parallel()

	sch, err := Parse([]byte(minimalDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sch.Year != 2025 || sch.Kind != filing.KindIndividual {
		t.Fatalf("got (%d, %s), want (2025, INDIVIDUAL)", sch.Year, sch.Kind)
	}
	if len(sch.Sections) != 1 || len(sch.Sections[0].Questions) != 2 {
		t.Fatalf("unexpected shape: %+v", sch.Sections)
	}
	if _, ok := sch.Question("identity.status"); !ok {
		t.Fatal("Question lookup failed for identity.status")
	}
}

func TestParseRejectsBadDocuments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "no sections",
			doc:  "year: 2025\nkind: INDIVIDUAL\nsections: []\n",
			want: "at least one section",
		},
		{
			name: "unknown kind",
			doc:  "year: 2025\nkind: PARTNERSHIP\nsections:\n  - id: a\n    questions:\n      - {id: q, type: text}\n",
			want: "unknown kind",
		},
		{
			name: "duplicate question id",
			doc:  "year: 2025\nkind: INDIVIDUAL\nsections:\n  - id: a\n    questions:\n      - {id: q, type: text}\n      - {id: q, type: text}\n",
			want: "duplicate question id",
		},
		{
			name: "select without options",
			doc:  "year: 2025\nkind: INDIVIDUAL\nsections:\n  - id: a\n    questions:\n      - {id: q, type: select}\n",
			want: "requires options",
		},
		{
			name: "group without fields",
			doc:  "year: 2025\nkind: INDIVIDUAL\nsections:\n  - id: a\n    questions:\n      - {id: q, type: group}\n",
			want: "requires fields",
		},
		{
			name: "nested group",
			doc: "year: 2025\nkind: INDIVIDUAL\nsections:\n  - id: a\n    questions:\n      - id: q\n        type: group\n" +
				"        fields:\n          - {name: inner, type: group}\n",
			want: "do not nest",
		},
		{
			name: "condition references unknown question",
			doc: "year: 2025\nkind: INDIVIDUAL\nsections:\n  - id: a\n    questions:\n      - id: q\n        type: text\n" +
				"        when: {question: ghost, op: equals, value: x}\n",
			want: "unknown question",
		},
		{
			name: "oneOf without values",
			doc: "year: 2025\nkind: INDIVIDUAL\nsections:\n  - id: a\n    questions:\n      - {id: p, type: text}\n      - id: q\n        type: text\n" +
				"        when: {question: p, op: oneOf}\n",
			want: "oneOf requires values",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatal("Parse accepted a bad document")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestParseDetectsConditionCycle(t *testing.T) {
	t.Parallel()

	doc := `
year: 2025
kind: INDIVIDUAL
sections:
  - id: a
    questions:
      - id: first
        type: checkbox
        when: {question: second, op: equals, value: true}
      - id: second
        type: checkbox
        when: {question: first, op: equals, value: true}
`
	_, err := Parse([]byte(doc))
	var cyclic ErrCyclicCondition
	if !errors.As(err, &cyclic) {
		t.Fatalf("got %v, want ErrCyclicCondition", err)
	}
}

func TestParseDetectsSelfReference(t *testing.T) {
	t.Parallel()

	doc := `
year: 2025
kind: INDIVIDUAL
sections:
  - id: a
    questions:
      - id: loop
        type: checkbox
        when: {question: loop, op: equals, value: true}
`
	_, err := Parse([]byte(doc))
	var cyclic ErrCyclicCondition
	if !errors.As(err, &cyclic) {
		t.Fatalf("got %v, want ErrCyclicCondition", err)
	}
	if cyclic.Question != "loop" {
		t.Fatalf("cycle reported at %q, want loop", cyclic.Question)
	}
}

func TestFSProviderLookupAndCache(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"individual_2025.yaml": &fstest.MapFile{Data: []byte(minimalDoc)},
	}
	p := NewFSProvider(fsys)

	first, err := p.Schema(2025, filing.KindIndividual)
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}

	// Mutate the backing file; the cached parse must win.
	fsys["individual_2025.yaml"].Data = []byte("year: 2025\nkind: INDIVIDUAL\nsections: []\n")
	second, err := p.Schema(2025, filing.KindIndividual)
	if err != nil {
		t.Fatalf("cached Schema: %v", err)
	}
	if len(second.Sections) != len(first.Sections) {
		t.Fatal("second lookup did not come from cache")
	}

	if _, err := p.Schema(2030, filing.KindIndividual); !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("missing year: got %v, want ErrSchemaNotFound", err)
	}
	if _, err := p.Schema(2025, filing.KindTrust); !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("missing kind: got %v, want ErrSchemaNotFound", err)
	}
}

func TestFSProviderRejectsMismatchedHeader(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"individual_2024.yaml": &fstest.MapFile{Data: []byte(minimalDoc)}, // declares 2025 inside
	}
	p := NewFSProvider(fsys)
	if _, err := p.Schema(2024, filing.KindIndividual); err == nil {
		t.Fatal("accepted a document whose header disagrees with its filename")
	}
}

func TestEmbeddedProviderServesAllKinds(t *testing.T) {
	t.Parallel()

	p := EmbeddedProvider()
	for _, kind := range []filing.Kind{filing.KindIndividual, filing.KindCorporate, filing.KindTrust} {
		sch, err := p.Schema(2025, kind)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if len(sch.Sections) == 0 {
			t.Fatalf("%s: empty questionnaire", kind)
		}
	}

	// The individual questionnaire carries the wizard-purpose tags the
	// engine depends on.
	sch, err := p.Schema(2025, filing.KindIndividual)
	if err != nil {
		t.Fatalf("individual: %v", err)
	}
	for _, purpose := range []string{PurposeMaritalStatus, PurposeDependents, PurposeRegion} {
		if _, ok := sch.ByPurpose(purpose); !ok {
			t.Errorf("individual questionnaire lacks a %q question", purpose)
		}
	}
}
