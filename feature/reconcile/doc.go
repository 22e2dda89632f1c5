// Package reconcile merges externally fetched ERP inventory snapshots into
// the internal store.
//
// A run never loses data: records absent from the snapshot are left alone
// (exports may be partial), ambiguous matches become open conflicts for an
// operator instead of being auto-resolved, and row-level failures are
// skipped and reported rather than aborting the run. Runs for the same
// category are serialized through an advisory lock.
package reconcile
