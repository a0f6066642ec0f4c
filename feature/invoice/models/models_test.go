package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestSchema(t *testing.T) {
	s, err := schema.Parse(&Invoice{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	assert.Equal(t, "invoices", s.Table)
	assert.Equal(t, "invoice_id", s.PrioritizedPrimaryField.DBName)

	detail := s.Relationships.Relations["Detail"]
	require.NotNil(t, detail)
	assert.Equal(t, schema.HasOne, detail.Type)
	assert.Equal(t, "invoice_details", detail.FieldSchema.Table)
	items := s.Relationships.Relations["Items"]
	require.NotNil(t, items)
	assert.Equal(t, schema.HasMany, items.Type)
	assert.Equal(t, "invoice_items", items.FieldSchema.Table)
}

func TestLinks(t *testing.T) {
	inv := &Invoice{InvoiceID: 7, Detail: &InvoiceDetail{}, Items: []*InvoiceItem{{}, {}}}

	LinkDetail(inv, DetailOf(inv))
	assert.EqualValues(t, 7, inv.Detail.InvoiceID)
	for _, it := range ItemsOf(inv) {
		LinkItem(inv, it)
		assert.EqualValues(t, 7, it.InvoiceID)
	}
	assert.Len(t, All(), 3)
}
