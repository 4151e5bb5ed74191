// Package visibility decides which questions and sections apply given the
// answers collected so far. Evaluation is a pure function of the answer map:
// the same inputs always produce the same result, and nothing here mutates
// state. Termination is guaranteed by the cycle check the schema loader runs
// before a questionnaire is accepted.
package visibility

import (
	"strconv"
	"strings"
	"time"

	"github.com/taxglide/filingwizard/pkg/schema"
)

// Visible reports whether a question applies under the given answers.
// Questions without a condition are always visible.
func Visible(q schema.Question, answers map[string]any) bool {
	return holds(q.When, answers)
}

// SectionVisible reports whether a section applies. A section with its own
// condition follows that condition; otherwise it is visible when any of its
// questions is visible, so an all-conditional section disappears once every
// question inside it is gated off.
func SectionVisible(sec schema.Section, answers map[string]any) bool {
	if sec.When != nil {
		return holds(sec.When, answers)
	}
	for _, q := range sec.Questions {
		if Visible(q, answers) {
			return true
		}
	}
	return false
}

// VisibleQuestions filters a section's questions down to the applicable
// ones, preserving order.
func VisibleQuestions(sec schema.Section, answers map[string]any) []schema.Question {
	out := make([]schema.Question, 0, len(sec.Questions))
	for _, q := range sec.Questions {
		if Visible(q, answers) {
			out = append(out, q)
		}
	}
	return out
}

func holds(c *schema.Condition, answers map[string]any) bool {
	if c == nil {
		return true
	}
	got := answers[c.Question]
	switch c.Op {
	case schema.OpEquals:
		return equal(got, c.Value)
	case schema.OpNotEquals:
		return !equal(got, c.Value)
	case schema.OpOneOf:
		for _, want := range c.Values {
			if equal(got, want) {
				return true
			}
		}
		return false
	}
	// Unknown operators never reach here; the loader rejects them.
	return false
}

// equal compares an answer against a clause literal. Both sides are coerced
// by the literal's type: booleans as booleans, numbers numerically,
// everything else as trimmed strings, so true and "true" agree.
func equal(got, want any) bool {
	if got == nil && want == nil {
		return true
	}
	if wb, ok := asBool(want); ok {
		gb := truthy(got)
		return gb == wb
	}
	if wn, ok := asNumber(want); ok {
		gn, gok := asNumber(got)
		return gok && gn == wn
	}
	return asString(got) == asString(want)
}

func asBool(value any) (bool, bool) {
	b, ok := value.(bool)
	return b, ok
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return parsed
		}
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format("2006-01-02")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Answered reports whether a question has an explicit answer, empty string
// included as "not answered". The spouse checkpoint relies on this to avoid
// auto-skipping while the marital question is still blank.
func Answered(answers map[string]any, questionID string) bool {
	value, ok := answers[questionID]
	if !ok {
		return false
	}
	return !Empty(value)
}

// Empty reports whether an answer counts as unanswered: nil, a blank string
// or an empty list.
func Empty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case []map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

// Truthy exposes the boolean coercion used for checkbox-style answers.
func Truthy(value any) bool {
	return truthy(value)
}

// AsString exposes the string coercion used when matching option values.
func AsString(value any) string {
	return asString(value)
}

// AsNumber exposes the numeric coercion used by validation.
func AsNumber(value any) (float64, bool) {
	return asNumber(value)
}
