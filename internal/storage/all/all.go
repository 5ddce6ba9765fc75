// Package all registers every storage backend. Import it for side effects.
package all

import (
	_ "retailbench/internal/storage/mssql"
	_ "retailbench/internal/storage/postgres"
	_ "retailbench/internal/storage/sqlite"
)
