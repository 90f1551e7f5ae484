// Package database provides SQLite persistence for knxnetipd.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - The cache_state table, which persists the address-value cache across
//     restarts so the daemon does not need to re-read every configured
//     group address on startup
//   - Connection pooling and lifecycle management
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
//	db, err := database.Open(database.Config{Path: cfg.Cache.StatePath, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.EnsureCacheStateTable(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	records, err := db.LoadCacheState(ctx)
package database
