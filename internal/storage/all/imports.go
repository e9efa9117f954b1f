// Package all wires the built-in storage backends into the storage factory.
//
// Importing it for side effects registers these kinds:
//
//   - "postgres" (samfdw/internal/storage/postgres)
//   - "sqlite", "mysql", "mssql" (samfdw/internal/storage/sqldb)
//   - "mongodb" (samfdw/internal/storage/mongodb)
//
// A binary that needs only a subset can blank-import the backend packages
// directly instead.
package all

import (
	_ "samfdw/internal/storage/mongodb"
	_ "samfdw/internal/storage/postgres"
	_ "samfdw/internal/storage/sqldb"
)
