// Package migration applies versioned schema changes to the SQLite store.
//
// Migration files are named {version}_{description}.sql and are read from an
// fs.FS, normally an embed.FS compiled into the binary. Applied versions are
// recorded in schema_migrations together with the file checksum, so an edited
// migration that was already applied is reported instead of silently skipped.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"), migration.NewSQLiteExecutor(db), logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
