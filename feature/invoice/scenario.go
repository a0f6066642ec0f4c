package invoice

import (
	"context"
	"fmt"

	"bulkmerge/core/merge"
	"bulkmerge/feature/invoice/models"
)

// Scenario names a demo run.
type Scenario string

const (
	// ScenarioSingle updates invoice 1 alone.
	ScenarioSingle Scenario = "single"
	// ScenarioMany updates every seeded invoice and inserts new ones in one merge.
	ScenarioMany Scenario = "many"
	// ScenarioOneToOne merges invoices, then their details.
	ScenarioOneToOne Scenario = "one-to-one"
	// ScenarioOneToMany merges invoices, then their items.
	ScenarioOneToMany Scenario = "one-to-many"
)

// Scenarios lists every scenario in presentation order.
func Scenarios() []Scenario {
	return []Scenario{ScenarioSingle, ScenarioMany, ScenarioOneToOne, ScenarioOneToMany}
}

// ParseScenario validates a scenario name.
func ParseScenario(name string) (Scenario, error) {
	for _, s := range Scenarios() {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown scenario %q", name)
}

// Options sizes a scenario run.
type Options struct {
	// Seed is the number of invoices present before the run.
	Seed int `json:"seed"`
	// New is the number of invoices added by the run.
	New int `json:"new"`
	// Items is the number of items per invoice.
	Items int `json:"items"`
}

// DefaultOptions returns the sizes of the original demo.
func DefaultOptions() Options {
	return Options{Seed: 10000, New: 10000, Items: 5}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Seed <= 0 {
		o.Seed = d.Seed
	}
	if o.New < 0 {
		o.New = 0
	}
	if o.Items <= 0 {
		o.Items = d.Items
	}
	return o
}

// runner prepares the rows of a scenario and merges them. Only the merge is timed.
type runner func(ctx context.Context, e *merge.Engine, m *mappings, opts Options) (merge.Summary, error)

var runners = map[Scenario]runner{
	ScenarioSingle:    runSingle,
	ScenarioMany:      runMany,
	ScenarioOneToOne:  runOneToOne,
	ScenarioOneToMany: runOneToMany,
}

func runSingle(ctx context.Context, e *merge.Engine, m *mappings, _ Options) (merge.Summary, error) {
	inv, err := LoadInvoice(ctx, e.DB(), 1)
	if err != nil {
		return merge.Summary{}, err
	}
	inv.Code = "Bulk_Update_0"

	h, err := merge.MergeRoot(ctx, e, []*models.Invoice{inv}, m.invoices)
	return done(h), err
}

func runMany(ctx context.Context, e *merge.Engine, m *mappings, opts Options) (merge.Summary, error) {
	invoices, err := LoadInvoices(ctx, e.DB())
	if err != nil {
		return merge.Summary{}, err
	}
	for i, inv := range invoices {
		inv.Code = fmt.Sprintf("Bulk_Update_%d", i)
	}
	for i := 0; i < opts.New; i++ {
		invoices = append(invoices, &models.Invoice{Code: fmt.Sprintf("BulkInsert_Many_%d", i)})
	}

	h, err := merge.MergeRoot(ctx, e, invoices, m.invoices)
	return done(h), err
}

func runOneToOne(ctx context.Context, e *merge.Engine, m *mappings, opts Options) (merge.Summary, error) {
	invoices, err := LoadInvoices(ctx, e.DB(), "Detail")
	if err != nil {
		return merge.Summary{}, err
	}
	for _, inv := range invoices {
		inv.Code += "z"
		if inv.Detail != nil {
			inv.Detail.Detail += "z"
		}
	}
	for i := 0; i < opts.New; i++ {
		invoices = append(invoices, &models.Invoice{
			Code:   fmt.Sprintf("BulkInsert_Many_%d", i),
			Detail: &models.InvoiceDetail{Detail: fmt.Sprintf("BulkInsert_Many_%d", i)},
		})
	}

	h, err := merge.MergeRoot(ctx, e, invoices, m.invoices)
	if err != nil {
		return done(h), err
	}
	_, err = mergeDetails(ctx, h, m)
	return done(h), err
}

func runOneToMany(ctx context.Context, e *merge.Engine, m *mappings, opts Options) (merge.Summary, error) {
	invoices, err := LoadInvoices(ctx, e.DB(), "Items")
	if err != nil {
		return merge.Summary{}, err
	}
	for _, inv := range invoices {
		inv.Code += "z"
		for _, it := range inv.Items {
			it.Code += "z"
		}
	}
	for i := 0; i < opts.New; i++ {
		inv := &models.Invoice{Code: fmt.Sprintf("BulkInsert_Many_%d", i)}
		for j := 0; j < opts.Items; j++ {
			inv.Items = append(inv.Items, &models.InvoiceItem{Code: fmt.Sprintf("BulkInsert_Many_%d", i)})
		}
		invoices = append(invoices, inv)
	}

	h, err := merge.MergeRoot(ctx, e, invoices, m.invoices)
	if err != nil {
		return done(h), err
	}
	_, err = mergeItems(ctx, h, m)
	return done(h), err
}

// done ends the chain of h, if one was started.
func done[T any](h *merge.Handle[T]) merge.Summary {
	if h == nil {
		return merge.Summary{}
	}
	return h.Done()
}
