// Package pricing derives what a filing costs from its composition: the
// filing kind, how many people it covers, and which complexity-flagged
// questions were answered. All money is int64 cents.
package pricing

import (
	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/visibility"
)

// Item is one line in the fee breakdown.
type Item struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amountCents"`
}

// Quote is the full fee breakdown for one filing.
type Quote struct {
	BaseFeeCents  int64  `json:"baseFeeCents"`
	Items         []Item `json:"items,omitempty"`
	SubtotalCents int64  `json:"subtotalCents"`
	TaxCents      int64  `json:"taxCents"`
	TotalCents    int64  `json:"totalCents"`
	TaxRateBps    int64  `json:"taxRateBps"`
}

// Calculator holds the fee schedule. Construct with New and adjust via
// options; the zero value is not usable.
type Calculator struct {
	baseFees      map[filing.Kind]int64
	spouseFee     int64
	dependentFee  int64
	complexity    map[string]int64
	taxRates      map[string]int64 // region -> basis points
	defaultTaxBps int64
}

// Option customises the calculator's fee schedule.
type Option func(*Calculator)

// WithBaseFee overrides the flat fee for a filing kind.
func WithBaseFee(kind filing.Kind, cents int64) Option {
	return func(c *Calculator) { c.baseFees[kind] = cents }
}

// WithSpouseFee overrides the per-spouse adjustment.
func WithSpouseFee(cents int64) Option {
	return func(c *Calculator) { c.spouseFee = cents }
}

// WithDependentFee overrides the per-dependent-filing adjustment.
func WithDependentFee(cents int64) Option {
	return func(c *Calculator) { c.dependentFee = cents }
}

// WithComplexityFee sets the adjustment for a schema-declared complexity
// code such as "self-employment".
func WithComplexityFee(code string, cents int64) Option {
	return func(c *Calculator) { c.complexity[code] = cents }
}

// WithTaxRate sets the sales-tax rate, in basis points, for a region code.
func WithTaxRate(region string, bps int64) Option {
	return func(c *Calculator) { c.taxRates[region] = bps }
}

// WithDefaultTaxRate sets the rate used when the region is unanswered or
// unknown.
func WithDefaultTaxRate(bps int64) Option {
	return func(c *Calculator) { c.defaultTaxBps = bps }
}

// New builds a calculator with the stock fee schedule.
func New(options ...Option) *Calculator {
	c := &Calculator{
		baseFees: map[filing.Kind]int64{
			filing.KindIndividual: 4999,
			filing.KindCorporate:  24999,
			filing.KindTrust:      19999,
		},
		spouseFee:    2999,
		dependentFee: 1999,
		complexity: map[string]int64{
			"self-employment": 4499,
			"rental-income":   3499,
			"foreign-income":  5999,
			"capital-gains":   2999,
		},
		taxRates: map[string]int64{
			"AB": 500, "BC": 1200, "MB": 1200, "NB": 1500, "NL": 1500,
			"NS": 1400, "NT": 500, "NU": 500, "ON": 1300, "PE": 1500,
			"QC": 1498, "SK": 1100, "YT": 500,
		},
		defaultTaxBps: 1300,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Compute prices a filing from its records and questionnaire. For
// INDIVIDUAL filings pass every person record; for entity kinds pass the
// business record's answers as a single-element slice.
func (c *Calculator) Compute(f *filing.Filing, sch schema.Schema, records []Record) Quote {
	quote := Quote{BaseFeeCents: c.baseFees[f.Kind]}

	region := ""
	for _, rec := range records {
		switch rec.Role {
		case filing.RoleSpouse:
			quote.Items = append(quote.Items, Item{
				Code:        "spouse",
				Label:       "Spouse return",
				AmountCents: c.spouseFee,
			})
		case filing.RoleDependent:
			quote.Items = append(quote.Items, Item{
				Code:        "dependent",
				Label:       "Dependent return",
				AmountCents: c.dependentFee,
			})
		}
		if region == "" {
			region = regionAnswer(sch, rec.Answers)
		}
		quote.Items = append(quote.Items, c.complexityItems(sch, rec.Answers)...)
	}

	quote.SubtotalCents = quote.BaseFeeCents
	for _, item := range quote.Items {
		quote.SubtotalCents += item.AmountCents
	}

	quote.TaxRateBps = c.defaultTaxBps
	if bps, ok := c.taxRates[region]; ok {
		quote.TaxRateBps = bps
	}
	quote.TaxCents = quote.SubtotalCents * quote.TaxRateBps / 10000
	quote.TotalCents = quote.SubtotalCents + quote.TaxCents
	return quote
}

// Record is the slice of a person or business record pricing needs.
type Record struct {
	Role    filing.Role
	Answers map[string]any
}

// AmountDueCents returns what an amendment still owes: the current total
// minus what was already paid, floored at zero. Zero is a valid outcome
// ("no additional payment required"), not an error.
func AmountDueCents(totalCents, paidCents int64) int64 {
	due := totalCents - paidCents
	if due < 0 {
		return 0
	}
	return due
}

func (c *Calculator) complexityItems(sch schema.Schema, answers map[string]any) []Item {
	var items []Item
	for _, sec := range sch.Sections {
		for _, q := range sec.Questions {
			if q.Complexity == "" {
				continue
			}
			fee, ok := c.complexity[q.Complexity]
			if !ok {
				continue
			}
			if !visibility.Truthy(answers[q.ID]) {
				continue
			}
			label := q.Label
			if label == "" {
				label = q.Complexity
			}
			items = append(items, Item{Code: q.Complexity, Label: label, AmountCents: fee})
		}
	}
	return items
}

func regionAnswer(sch schema.Schema, answers map[string]any) string {
	q, ok := sch.ByPurpose(schema.PurposeRegion)
	if !ok {
		return ""
	}
	return visibility.AsString(answers[q.ID])
}
