// Package utils provides loose-type coercion helpers for values read from
// ERP exports, which are inconsistent about numeric and string typing.
package utils
