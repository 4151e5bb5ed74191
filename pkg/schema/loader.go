package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/taxglide/filingwizard/pkg/filing"
)

var (
	// ErrSchemaNotFound reports that no questionnaire exists for the
	// requested (year, kind) pair.
	ErrSchemaNotFound = errors.New("schema: not found")

	errNoSections = errors.New("schema: at least one section is required")
)

// Provider resolves the questionnaire for a (year, kind) pair. Lookups are
// pure: the same pair always yields the same schema.
type Provider interface {
	Schema(year int, kind filing.Kind) (Schema, error)
}

// FSProvider loads questionnaires from an fs.FS holding one YAML document
// per (kind, year), named like "individual_2025.yaml". Documents are parsed
// and verified once, then served from cache.
type FSProvider struct {
	fsys fs.FS

	mu    sync.Mutex
	cache map[string]Schema
}

// NewFSProvider wraps a filesystem of questionnaire documents.
func NewFSProvider(fsys fs.FS) *FSProvider {
	return &FSProvider{fsys: fsys, cache: make(map[string]Schema)}
}

// Schema implements Provider.
func (p *FSProvider) Schema(year int, kind filing.Kind) (Schema, error) {
	key := fmt.Sprintf("%s_%d", strings.ToLower(string(kind)), year)

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.cache[key]; ok {
		return cached, nil
	}

	raw, err := fs.ReadFile(p.fsys, key+".yaml")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Schema{}, fmt.Errorf("%w: %s %d", ErrSchemaNotFound, kind, year)
		}
		return Schema{}, fmt.Errorf("schema: read %s: %w", key, err)
	}

	sch, err := Parse(raw)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: load %s: %w", key, err)
	}
	if sch.Year != year || sch.Kind != kind {
		return Schema{}, fmt.Errorf("schema: document %s declares (%s, %d)", key, sch.Kind, sch.Year)
	}

	p.cache[key] = sch
	return sch, nil
}

// Parse decodes and verifies a single questionnaire document. Verification
// includes the condition-reference cycle check, so callers may assume
// visibility evaluation over a parsed schema terminates.
func Parse(raw []byte) (Schema, error) {
	var sch Schema
	if err := yaml.Unmarshal(raw, &sch); err != nil {
		return Schema{}, fmt.Errorf("schema: decode: %w", err)
	}
	if err := verify(sch); err != nil {
		return Schema{}, err
	}
	return sch, nil
}

func verify(sch Schema) error {
	if len(sch.Sections) == 0 {
		return errNoSections
	}
	if !sch.Kind.Valid() {
		return fmt.Errorf("schema: unknown kind %q", sch.Kind)
	}

	seen := make(map[string]struct{})
	for _, sec := range sch.Sections {
		if strings.TrimSpace(sec.ID) == "" {
			return errors.New("schema: section id is required")
		}
		for _, q := range sec.Questions {
			if strings.TrimSpace(q.ID) == "" {
				return fmt.Errorf("schema: section %q: question id is required", sec.ID)
			}
			if _, dup := seen[q.ID]; dup {
				return fmt.Errorf("schema: duplicate question id %q", q.ID)
			}
			seen[q.ID] = struct{}{}
			if err := verifyQuestion(sec, q); err != nil {
				return err
			}
		}
	}

	for _, sec := range sch.Sections {
		if err := verifyCondition(sch, sec.When, "section "+sec.ID); err != nil {
			return err
		}
		for _, q := range sec.Questions {
			if err := verifyCondition(sch, q.When, "question "+q.ID); err != nil {
				return err
			}
		}
	}

	return checkConditionCycles(sch)
}

func verifyQuestion(sec Section, q Question) error {
	switch q.Type {
	case TypeText, TypeNumber, TypeDate, TypeCheckbox:
	case TypeSelect, TypeRadio, TypeMultiSelect:
		if len(q.Options) == 0 {
			return fmt.Errorf("schema: question %q: %s requires options", q.ID, q.Type)
		}
	case TypeGroup:
		if len(q.Fields) == 0 {
			return fmt.Errorf("schema: question %q: group requires fields", q.ID)
		}
		for _, f := range q.Fields {
			if strings.TrimSpace(f.Name) == "" {
				return fmt.Errorf("schema: question %q: group field name is required", q.ID)
			}
			if f.Type == TypeGroup {
				return fmt.Errorf("schema: question %q: groups do not nest", q.ID)
			}
		}
	default:
		return fmt.Errorf("schema: question %q in section %q: unknown type %q", q.ID, sec.ID, q.Type)
	}
	return nil
}

func verifyCondition(sch Schema, c *Condition, where string) error {
	if c == nil {
		return nil
	}
	switch c.Op {
	case OpEquals, OpNotEquals:
	case OpOneOf:
		if len(c.Values) == 0 {
			return fmt.Errorf("schema: %s: oneOf requires values", where)
		}
	default:
		return fmt.Errorf("schema: %s: unknown operator %q", where, c.Op)
	}
	if _, ok := sch.Question(c.Question); !ok {
		return fmt.Errorf("schema: %s: condition references unknown question %q", where, c.Question)
	}
	return nil
}
