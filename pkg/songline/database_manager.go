package songline

import (
	"context"
)

// IsTemplateDatabase reports whether dbName is one of the PostgreSQL
// template databases, which must never be dropped or overwritten.
func IsTemplateDatabase(dbName string) bool {
	switch dbName {
	case "template0", "template1":
		return true
	default:
		return false
	}
}

// DatabaseManager defines the interface for database management operations.
type DatabaseManager interface {
	// Exists checks if a database exists.
	Exists(ctx context.Context, conn DBConnection, dbName string) (bool, error)

	// Create creates a new database.
	Create(ctx context.Context, conn DBConnection, dbName string) error

	// Drop drops the specified database.
	Drop(ctx context.Context, conn DBConnection, dbName string) error

	// TerminateConnections terminates all connections to the specified database.
	// This is typically used before dropping a database to ensure no active connections remain.
	TerminateConnections(ctx context.Context, conn DBConnection, dbName string) error
}
