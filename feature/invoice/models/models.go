package models

// Invoice is the root entity of the demo schema.
type Invoice struct {
	InvoiceID uint           `gorm:"primaryKey;column:invoice_id"`
	Code      string         `gorm:"column:code;type:varchar(255);not null"`
	MergeTag  string         `gorm:"column:merge_tag;type:varchar(64);index"`
	Detail    *InvoiceDetail `gorm:"foreignKey:InvoiceID;references:InvoiceID;constraint:OnDelete:CASCADE"`
	Items     []*InvoiceItem `gorm:"foreignKey:InvoiceID;references:InvoiceID;constraint:OnDelete:CASCADE"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceDetail belongs to exactly one invoice.
type InvoiceDetail struct {
	InvoiceDetailID uint   `gorm:"primaryKey;column:invoice_detail_id"`
	InvoiceID       uint   `gorm:"column:invoice_id;not null;index"`
	Detail          string `gorm:"column:detail;type:varchar(255)"`
	MergeTag        string `gorm:"column:merge_tag;type:varchar(64);index"`
}

func (InvoiceDetail) TableName() string {
	return "invoice_details"
}

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	InvoiceItemID uint   `gorm:"primaryKey;column:invoice_item_id"`
	InvoiceID     uint   `gorm:"column:invoice_id;not null;index"`
	Code          string `gorm:"column:code;type:varchar(255)"`
	MergeTag      string `gorm:"column:merge_tag;type:varchar(64);index"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// All lists the demo models in dependency order.
func All() []any {
	return []any{&Invoice{}, &InvoiceDetail{}, &InvoiceItem{}}
}

// DetailOf returns the invoice's detail.
func DetailOf(inv *Invoice) *InvoiceDetail { return inv.Detail }

// ItemsOf returns the invoice's items.
func ItemsOf(inv *Invoice) []*InvoiceItem { return inv.Items }

// LinkDetail copies the invoice key into its detail.
func LinkDetail(inv *Invoice, d *InvoiceDetail) { d.InvoiceID = inv.InvoiceID }

// LinkItem copies the invoice key into one of its items.
func LinkItem(inv *Invoice, it *InvoiceItem) { it.InvoiceID = inv.InvoiceID }
