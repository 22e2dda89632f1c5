// Package ledger records every category/bucket change of an inventory
// record as an immutable history entry.
//
// The ledger is auditing, not a transactional guard: a failed entry write
// is logged and the underlying record mutation proceeds anyway. Losing a
// history line is preferable to blocking warehouse operators mid-shift.
package ledger
