// Package filingwizard re-exports the most used pieces of the module so
// callers embedding the wizard only need one import for the common path:
// open a filing, drive it with commands, and submit.
package filingwizard

import (
	"context"

	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/pricing"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/store"
	"github.com/taxglide/filingwizard/pkg/submit"
	"github.com/taxglide/filingwizard/pkg/wizard"
)

// Filing is the parent aggregate a wizard session works on.
type Filing = filing.Filing

// Kind selects the questionnaire family.
type Kind = filing.Kind

// Command is one wizard event.
type Command = wizard.Command

// View is the projection returned after every dispatch.
type View = wizard.View

// Engine drives one filing through the wizard.
type Engine = wizard.Engine

// Quote is a computed fee breakdown.
type Quote = pricing.Quote

// Result is a structured submission outcome.
type Result = submit.Result

// Schemas returns the provider backed by the questionnaires compiled into
// the module.
func Schemas() schema.Provider {
	return schema.EmbeddedProvider()
}

// NewEngine builds a wizard engine for an existing filing.
func NewEngine(st store.Store, schemas schema.Provider, filingID string, options ...wizard.Option) *Engine {
	return wizard.New(st, schemas, filingID, options...)
}

// Open creates a draft filing and returns an engine already initialised on
// it. The returned view shows the first section of the root role.
func Open(ctx context.Context, st store.Store, schemas schema.Provider, ownerID string, year int, kind Kind, options ...wizard.Option) (*Engine, View, error) {
	f := &filing.Filing{OwnerID: ownerID, Year: year, Kind: kind, Status: filing.StatusDraft}
	if err := st.CreateFiling(ctx, f); err != nil {
		return nil, View{}, err
	}
	eng := wizard.New(st, schemas, f.ID, options...)
	view, err := eng.Dispatch(ctx, wizard.Command{Kind: wizard.CmdInit})
	if err != nil {
		return nil, view, err
	}
	return eng, view, nil
}

// Submit runs the submission protocol directly, outside a wizard session.
func Submit(ctx context.Context, st store.Store, schemas schema.Provider, filingID string) Result {
	return submit.New(st, schemas, pricing.New()).Submit(ctx, filingID)
}
