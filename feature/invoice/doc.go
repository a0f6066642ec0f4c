// Package invoice implements the bulk merge demo on an invoice schema.
//
// Every run recreates the invoices, invoice_details and invoice_items tables, seeds them
// through the merge engine, then loads and modifies the rows of one scenario and merges
// them back. Only the final merge chain is timed.
//
// # Scenarios
//
//   - single: updates invoice 1.
//   - many: updates every invoice and appends new ones in one merge.
//   - one-to-one: merges invoices, then propagates keys into their details and merges those.
//   - one-to-many: the same with invoice items.
//
// Results go to a report.Reporter once per run, also when the merge partially failed.
//
// # HTTP Endpoints
//
//   - GET  /demo                : List scenarios and default sizes.
//   - POST /demo/:scenario      : Run a scenario. Query parameters seed, new and items set the sizes.
//   - GET  /demo/reports        : List stored reports, optionally filtered by ?scenario=.
package invoice
