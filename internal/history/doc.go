// Package history persists render runs in SQLite.
//
// Every render invocation records one row: the source and
// destination, the chosen quality preset, plan statistics, the final status
// and any error text. The store is a small audit trail, not a job queue;
// nothing reads it back except the history command.
//
// The schema version lives in PRAGMA user_version. Changing schema.sql means
// bumping schemaVersion and deleting older database files.
package history
