// Package database provides the storage abstraction layer for datapull.
//
// The package defines the [Store] interface which abstracts persistence of
// the application configuration and the task-run history. The default
// backend is BoltDB; store files ending in .sqlite, .sqlite3 or .db use
// SQLite instead.
//
// # Store Interface
//
// The [Store] interface defines methods for:
//   - Configuration management (GetConfig, SaveConfig)
//   - Task history (SaveRun, GetRun, ListRuns)
//
// Use [Open] to obtain a store and close it when done:
//
//	db, err := database.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	runs, err := db.ListRuns("deploy", 10)
//
// History keys are ordered by start time, so [Store.ListRuns] returns the
// newest runs first.
package database
