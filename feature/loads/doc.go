// Package loads is the registry for load metadata: named sub-groupings of
// inventory within a category.
//
// Rename and merge cascade into the inventory records that reference a load
// by name, inside a single transaction, so records never point at a load
// that was renamed away underneath them. The one sanctioned exception is
// Delete with clearItems=false, which knowingly leaves dangling bucket
// names behind.
package loads
