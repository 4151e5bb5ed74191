package schema

import "fmt"

// ErrCyclicCondition reports a questionnaire whose conditional clauses form
// a reference loop. Such documents are rejected at load time so visibility
// evaluation never has to defend against non-termination.
type ErrCyclicCondition struct {
	Question string
}

func (e ErrCyclicCondition) Error() string {
	return fmt.Sprintf("schema: cyclic condition reference through question %q", e.Question)
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// checkConditionCycles walks the question -> referenced-question graph with
// a three-color depth-first search. Section conditions contribute an edge
// from each contained question to the referenced one, since hiding the
// section hides them all.
func checkConditionCycles(sch Schema) error {
	edges := make(map[string][]string)
	add := func(from string, c *Condition) {
		if c == nil {
			return
		}
		edges[from] = append(edges[from], c.Question)
	}
	for _, sec := range sch.Sections {
		for _, q := range sec.Questions {
			add(q.ID, q.When)
			add(q.ID, sec.When)
		}
	}

	color := make(map[string]int, len(edges))
	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case colorGray:
			return ErrCyclicCondition{Question: id}
		case colorBlack:
			return nil
		}
		color[id] = colorGray
		for _, next := range edges[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		color[id] = colorBlack
		return nil
	}

	for _, sec := range sch.Sections {
		for _, q := range sec.Questions {
			if err := visit(q.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
