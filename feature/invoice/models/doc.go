// Package models contains the GORM models of the invoice demo schema.
//
// An Invoice has one InvoiceDetail and many InvoiceItems, both referencing it through
// invoice_id. Every table carries a merge_tag column the merge engine uses to correlate
// generated keys of multi-row inserts.
package models
