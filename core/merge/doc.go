// Package merge provides a bulk merge engine that upserts large entity sets and cascades
// generated keys into dependent child records.
//
// The engine works on gorm-mapped structs and is dialect agnostic: the upsert statement is
// rendered by the gorm dialector in use (ON CONFLICT on SQLite/PostgreSQL, ON DUPLICATE KEY
// UPDATE on MySQL).
//
// # Architecture
//
// 1. Mapping: built once per entity type from the gorm schema. It names the table, the
//    mapped columns, the single key column and whether the database generates it.
//
// 2. Planner: splits rows into ordered batches bounded by the dialect's parameter limit.
//
// 3. Executor: merges one batch in one transaction and returns one Outcome per row.
//    Generated keys are correlated either by a per-row tag column (one multi-row insert
//    followed by a read back by tag) or, without a tag column, by one insert per row.
//
// 4. Cascade: a handle threaded through MergeRoot, Propagate and ThenMerge. Each level is a
//    barrier; children are only merged after their parents' keys were propagated.
//
// # Failure semantics
//
// A batch is atomic. A failed batch never aborts its siblings; the level then returns a
// *PartialFailure with every row's outcome. Under the halt policy (default) the cascade stops
// there; under the skip policy only children of failed parents are left out.
//
// # Usage Example
//
//	engine := merge.NewEngine(db, cfg.Merge, logger)
//	invoices, _ := merge.MappingFor[models.Invoice](engine, merge.WithTagColumn("merge_tag"))
//	items, _ := merge.MappingFor[models.InvoiceItem](engine)
//
//	h, err := merge.MergeRoot(ctx, engine, rows, invoices)
//	h, err = merge.Propagate(h, itemsOf, func(inv *models.Invoice, it *models.InvoiceItem) {
//	    it.InvoiceID = inv.InvoiceID
//	})
//	child, err := merge.ThenMerge(ctx, h, itemsOf, items)
//	summary := child.Done()
package merge
