package invoice

import (
	"context"
	"fmt"

	"bulkmerge/feature/invoice/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoadInvoice returns the invoice with the given id.
func LoadInvoice(ctx context.Context, db *gorm.DB, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := db.WithContext(ctx).First(&inv, "invoice_id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to load invoice %d: %w", id, err)
	}
	return &inv, nil
}

// byKey orders a query by the primary key of its model.
var byKey = clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: clause.PrimaryKey}}

// LoadInvoices returns all invoices in key order. preload names the relations to load with
// them (Detail, Items); related rows are loaded in key order as well.
func LoadInvoices(ctx context.Context, db *gorm.DB, preload ...string) ([]*models.Invoice, error) {
	q := db.WithContext(ctx).Order(byKey)
	for _, rel := range preload {
		q = q.Preload(rel, func(tx *gorm.DB) *gorm.DB {
			return tx.Order(byKey)
		})
	}
	var invoices []*models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	return invoices, nil
}
