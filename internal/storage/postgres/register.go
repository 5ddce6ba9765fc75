package postgres

import "retailbench/internal/storage"

func init() {
	storage.Register("postgres", New)
}
