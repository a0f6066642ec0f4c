package invoice

import (
	"bulkmerge/core/merge"
	"bulkmerge/feature/invoice/models"
)

const tagColumn = "merge_tag"

// mappings bundles the merge mappings of the demo schema.
type mappings struct {
	invoices *merge.Mapping[models.Invoice]
	details  *merge.Mapping[models.InvoiceDetail]
	items    *merge.Mapping[models.InvoiceItem]
}

func loadMappings(e *merge.Engine) (*mappings, error) {
	invoices, err := merge.MappingFor[models.Invoice](e, merge.WithTagColumn(tagColumn))
	if err != nil {
		return nil, err
	}
	details, err := merge.MappingFor[models.InvoiceDetail](e, merge.WithTagColumn(tagColumn))
	if err != nil {
		return nil, err
	}
	items, err := merge.MappingFor[models.InvoiceItem](e, merge.WithTagColumn(tagColumn))
	if err != nil {
		return nil, err
	}
	return &mappings{invoices: invoices, details: details, items: items}, nil
}

// verify checks the mappings against the live schema.
func (m *mappings) verify(e *merge.Engine) error {
	if err := merge.VerifyMapping(e.DB(), m.invoices); err != nil {
		return err
	}
	if err := merge.VerifyMapping(e.DB(), m.details); err != nil {
		return err
	}
	return merge.VerifyMapping(e.DB(), m.items)
}
