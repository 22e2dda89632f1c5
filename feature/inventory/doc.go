// Package inventory owns the InventoryRecord table and the scan-matching
// engine.
//
// Resolve matches a scanned code against the unscanned working set with
// fixed field precedence (serial > grouping code > model); MarkScanned is
// the separate, idempotent write side. Other features build on this one:
// loads cascade bucket renames into records, sessions compute live totals
// from it, and reconciliation inserts and updates records through the same
// table.
package inventory
