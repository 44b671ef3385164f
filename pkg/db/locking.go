package db

import "gorm.io/gorm"

// LockingClause returns the row-locking suffix for the connection's dialect.
// SQLite has no row locks; its writes are serialized by the engine.
func LockingClause(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "sqlite", "sqlite3":
		return ""
	default:
		return " FOR UPDATE"
	}
}

// SkipLockedClause is LockingClause plus SKIP LOCKED where supported, used
// by batch workers to claim rows without blocking on each other.
func SkipLockedClause(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "sqlite", "sqlite3":
		return ""
	default:
		return " FOR UPDATE SKIP LOCKED"
	}
}
