//go:build !sqlite

package storage

import "fmt"

func newSQLiteStore(path string) (Store, error) {
	return nil, fmt.Errorf("%w: %s at %s (rebuild chromapaintctl with -tags sqlite)", ErrBackendUnavailable, KindSQLite, path)
}
