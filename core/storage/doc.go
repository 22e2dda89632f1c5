// Package storage wraps the Minio client behind a small interface.
//
// The ERP publishes inventory exports as JSON objects in a bucket; the
// reconciliation engine reads them through this client. The interface keeps
// services testable with the testify mock in the mocks subpackage.
package storage
