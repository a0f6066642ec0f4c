package invoice

import (
	"context"
	"fmt"

	"bulkmerge/core/merge"
	"bulkmerge/feature/invoice/models"
)

// Reset recreates the demo schema and seeds n invoices, each with one detail and
// itemsPer items. Seeding goes through the merge engine itself.
func Reset(ctx context.Context, e *merge.Engine, n, itemsPer int) error {
	db := e.DB().WithContext(ctx)

	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop demo tables: %w", err)
		}
	}
	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("failed to create demo tables: %w", err)
	}

	m, err := loadMappings(e)
	if err != nil {
		return err
	}
	if err := m.verify(e); err != nil {
		return err
	}

	invoices := make([]*models.Invoice, n)
	for i := range invoices {
		inv := &models.Invoice{
			Code:   fmt.Sprintf("Invoice_%d", i),
			Detail: &models.InvoiceDetail{Detail: fmt.Sprintf("Detail_%d", i)},
		}
		for j := 0; j < itemsPer; j++ {
			inv.Items = append(inv.Items, &models.InvoiceItem{Code: fmt.Sprintf("Item_%d_%d", i, j)})
		}
		invoices[i] = inv
	}

	h, err := merge.MergeRoot(ctx, e, invoices, m.invoices)
	if err != nil {
		return fmt.Errorf("failed to seed invoices: %w", err)
	}
	if _, err := mergeDetails(ctx, h, m); err != nil {
		return fmt.Errorf("failed to seed invoice details: %w", err)
	}
	if _, err := mergeItems(ctx, h, m); err != nil {
		return fmt.Errorf("failed to seed invoice items: %w", err)
	}
	h.Done()
	return nil
}

func mergeDetails(ctx context.Context, h *merge.Handle[models.Invoice], m *mappings) (*merge.Handle[models.InvoiceDetail], error) {
	details := merge.One(models.DetailOf)
	if _, err := merge.Propagate(h, details, models.LinkDetail); err != nil {
		return nil, err
	}
	return merge.ThenMerge(ctx, h, details, m.details)
}

func mergeItems(ctx context.Context, h *merge.Handle[models.Invoice], m *mappings) (*merge.Handle[models.InvoiceItem], error) {
	if _, err := merge.Propagate(h, models.ItemsOf, models.LinkItem); err != nil {
		return nil, err
	}
	return merge.ThenMerge(ctx, h, models.ItemsOf, m.items)
}
