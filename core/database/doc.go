// Package database provides the GORM connection to the inventory store.
//
// Connect selects the driver from configuration: MySQL for deployments,
// sqlite for tests and local tooling. MySQL connections carry setup and
// per-statement timeouts in the DSN so a hung store surfaces as a transient
// error rather than an indefinitely blocked call.
//
// The inspector helpers read live table schemas (dialect aware) and are used
// at startup to warn about missing tables before migration runs.
package database
