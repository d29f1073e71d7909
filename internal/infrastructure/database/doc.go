// Package database provides SQLite database connectivity for Lovi Core.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema bootstrap (state_history table)
//   - Connection pooling and lifecycle management
//   - STRICT mode enforcement for type safety
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - Busy timeout prevents lock contention errors
//   - Connection pooling reduces overhead
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Bootstrap(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
