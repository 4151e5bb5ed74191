// Package cli walks a filing through the wizard on a terminal: it renders
// each visible section as a run of prompts, answers the engine's
// checkpoints, and drives submission from the review screen.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taxglide/filingwizard/internal/prompt"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/visibility"
	"github.com/taxglide/filingwizard/pkg/wizard"
)

// Runner couples a prompt driver to one wizard engine.
type Runner struct {
	driver prompt.Driver
	engine *wizard.Engine
}

func New(driver prompt.Driver, engine *wizard.Engine) *Runner {
	return &Runner{driver: driver, engine: engine}
}

// Run drives the wizard until submission succeeds or the user exits. A nil
// error means the loop finished cleanly, submitted or not.
func (r *Runner) Run(ctx context.Context) error {
	view, err := r.engine.Dispatch(ctx, wizard.Command{Kind: wizard.CmdInit})
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch view.Phase.Kind {
		case wizard.PhaseRoleActive:
			view, err = r.section(ctx, view)
		case wizard.PhaseSpouseCheckpoint:
			view, err = r.spouseCheckpoint(ctx)
		case wizard.PhaseDependentCheckpoint:
			view, err = r.dependentCheckpoint(ctx)
		case wizard.PhaseReview:
			var done bool
			view, done, err = r.review(ctx, view)
			if err != nil || done {
				return err
			}
		case wizard.PhaseSubmitted:
			return r.driver.Info(ctx, fmt.Sprintf("Submitted. Your reference is %s.", view.Reference))
		default:
			return fmt.Errorf("cli: unexpected phase %s", view.Phase.Kind)
		}
		if err != nil {
			return err
		}
	}
}

func (r *Runner) section(ctx context.Context, view wizard.View) (wizard.View, error) {
	header := fmt.Sprintf("-- %s (%d of %d) --", view.SectionTitle, view.Phase.Section+1, view.SectionCount)
	if err := r.driver.Info(ctx, header); err != nil {
		return view, err
	}

	for _, q := range view.Questions {
		value, err := r.ask(ctx, q)
		if err != nil {
			return view, err
		}
		if visibility.Empty(value) && !q.Required {
			continue
		}
		view, err = r.engine.SetAnswer(ctx, q.ID, value)
		if err != nil {
			return view, err
		}
	}

	next, err := r.engine.Dispatch(ctx, wizard.Command{Kind: wizard.CmdNextSection})
	if err != nil {
		return next, err
	}
	for _, fieldErr := range next.Errors {
		if err := r.driver.Info(ctx, fmt.Sprintf("%s: %s", fieldErr.Key, fieldErr.Message)); err != nil {
			return next, err
		}
	}
	return next, nil
}

func (r *Runner) ask(ctx context.Context, q schema.Question) (any, error) {
	switch q.Type {
	case schema.TypeCheckbox:
		return r.driver.Confirm(ctx, prompt.ConfirmConfig{Message: q.Label, Help: q.Help})
	case schema.TypeSelect, schema.TypeRadio:
		idx, err := r.driver.Select(ctx, prompt.SelectConfig{Message: q.Label, Options: q.Options, Help: q.Help})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(q.Options) {
			return "", nil
		}
		return q.Options[idx], nil
	case schema.TypeMultiSelect:
		picked, err := r.driver.MultiSelect(ctx, prompt.SelectConfig{Message: q.Label, Options: q.Options, Help: q.Help})
		if err != nil {
			return nil, err
		}
		var out []string
		for _, i := range picked {
			out = append(out, q.Options[i])
		}
		return out, nil
	case schema.TypeNumber:
		return r.driver.Input(ctx, prompt.InputConfig{Message: q.Label, Help: q.Help, Validator: numberValidator(q.Required)})
	case schema.TypeDate:
		return r.driver.Input(ctx, prompt.InputConfig{Message: q.Label, Help: q.Help, Validator: dateValidator(q.Required)})
	case schema.TypeGroup:
		return r.askGroup(ctx, q)
	default:
		return r.driver.Input(ctx, prompt.InputConfig{Message: q.Label, Help: q.Help})
	}
}

func (r *Runner) askGroup(ctx context.Context, q schema.Question) (any, error) {
	var items []any
	for {
		more, err := r.driver.Confirm(ctx, prompt.ConfirmConfig{
			Message: fmt.Sprintf("Add an entry to %q?", q.Label),
			Default: len(items) == 0 && q.Required,
		})
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		entry := make(map[string]any, len(q.Fields))
		for _, f := range q.Fields {
			sub := schema.Question{
				ID:       f.Name,
				Type:     f.Type,
				Label:    f.Label,
				Required: f.Required,
				Options:  f.Options,
			}
			value, err := r.ask(ctx, sub)
			if err != nil {
				return nil, err
			}
			entry[f.Name] = value
		}
		items = append(items, entry)
	}
	return items, nil
}

func (r *Runner) spouseCheckpoint(ctx context.Context) (wizard.View, error) {
	add, err := r.driver.Confirm(ctx, prompt.ConfirmConfig{
		Message: "Does your spouse or partner file with you?",
	})
	if err != nil {
		return wizard.View{}, err
	}
	kind := wizard.CmdSkipSpouse
	if add {
		kind = wizard.CmdAddSpouse
	}
	return r.engine.Dispatch(ctx, wizard.Command{Kind: kind})
}

func (r *Runner) dependentCheckpoint(ctx context.Context) (wizard.View, error) {
	add, err := r.driver.Confirm(ctx, prompt.ConfirmConfig{
		Message: "Prepare returns for your dependents who earn income?",
		Default: true,
	})
	if err != nil {
		return wizard.View{}, err
	}
	if !add {
		return r.engine.Dispatch(ctx, wizard.Command{Kind: wizard.CmdSkipDependents})
	}
	// The engine caps the count at the number of earning dependents.
	return r.engine.Dispatch(ctx, wizard.Command{Kind: wizard.CmdAddDependents, Count: 99})
}

func (r *Runner) review(ctx context.Context, view wizard.View) (wizard.View, bool, error) {
	if view.Pricing != nil {
		if err := r.driver.Info(ctx, renderQuote(view)); err != nil {
			return view, false, err
		}
	}
	submit, err := r.driver.Confirm(ctx, prompt.ConfirmConfig{Message: "Submit this filing now?", Default: true})
	if err != nil {
		return view, false, err
	}
	if !submit {
		return view, true, r.driver.Info(ctx, "Your progress is saved; run again to continue.")
	}

	next, err := r.engine.Dispatch(ctx, wizard.Command{Kind: wizard.CmdSubmit})
	if err != nil {
		return next, false, err
	}
	if sub := next.Submission; sub != nil && !sub.OK() {
		if err := r.driver.Info(ctx, fmt.Sprintf("Submission refused: %s", sub.Reason)); err != nil {
			return next, false, err
		}
		if sub.Fatal() {
			return next, true, nil
		}
	}
	return next, false, nil
}

func renderQuote(view wizard.View) string {
	var b strings.Builder
	q := view.Pricing
	fmt.Fprintf(&b, "Base fee: %s\n", cents(q.BaseFeeCents))
	for _, item := range q.Items {
		fmt.Fprintf(&b, "%s: %s\n", item.Label, cents(item.AmountCents))
	}
	fmt.Fprintf(&b, "Tax: %s\n", cents(q.TaxCents))
	fmt.Fprintf(&b, "Total: %s", cents(q.TotalCents))
	if view.NoPaymentDue {
		b.WriteString("\nNo additional payment is required for this amendment.")
	} else if view.AmountDueCents != q.TotalCents {
		fmt.Fprintf(&b, "\nAmount due: %s", cents(view.AmountDueCents))
	}
	return b.String()
}

func cents(v int64) string {
	return "$" + strconv.FormatFloat(float64(v)/100, 'f', 2, 64)
}

func numberValidator(required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return fmt.Errorf("a number is required")
			}
			return nil
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("%q is not a number", s)
		}
		return nil
	}
}

func dateValidator(required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return fmt.Errorf("a date is required")
			}
			return nil
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return fmt.Errorf("dates use YYYY-MM-DD")
		}
		return nil
	}
}
