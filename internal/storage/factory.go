package storage

import (
	"errors"
	"fmt"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

var (
	ErrUnknownBackend     = errors.New("unknown store backend")
	ErrBackendUnavailable = errors.New("store backend not compiled into this chromapaint build")
)

// NewStore opens the run store named by kind. An empty kind selects the
// in-memory store; sqlitePath is only read by the sqlite backend.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		if sqlitePath == "" {
			return nil, fmt.Errorf("%s store requires a database path", KindSQLite)
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownBackend, kind, KindMemory, KindSQLite)
	}
}

// CloseIfSupported releases stores that hold a database handle.
func CloseIfSupported(store Store) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
