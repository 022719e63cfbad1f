package storage

import (
	"context"
	"errors"
	"testing"
)

func TestNewStoreDefaultsToMemory(t *testing.T) {
	for _, kind := range []string{"", KindMemory} {
		store, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("new store %q: %v", kind, err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Fatalf("kind %q: expected memory store, got %T", kind, store)
		}
		if err := store.Init(context.Background()); err != nil {
			t.Fatalf("init: %v", err)
		}
		if err := CloseIfSupported(store); err != nil {
			t.Fatalf("close memory store: %v", err)
		}
	}
}

func TestNewStoreRejectsUnknownBackend(t *testing.T) {
	_, err := NewStore("postgres", "")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestNewStoreSQLiteRequiresPath(t *testing.T) {
	if _, err := NewStore(KindSQLite, ""); err == nil {
		t.Fatal("expected missing database path error")
	}
}
