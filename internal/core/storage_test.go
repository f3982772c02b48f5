package core

import (
	"path/filepath"
	"testing"

	"fieldbook/internal/infra/persistence/memory"
	"fieldbook/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("FIELDBOOK_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("store is %T, want *memory.Store", store)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	t.Setenv("FIELDBOOK_STORAGE_DRIVER", "sqlite")
	t.Setenv("FIELDBOOK_SQLITE_PATH", filepath.Join(t.TempDir(), "fb.db"))
	store, err := OpenPersistentStore(nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ss, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("store is %T, want *sqlite.Store", store)
	}
	defer func() { _ = ss.DB().Close() }()
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("FIELDBOOK_STORAGE_DRIVER", "clay-tablet")
	if _, err := OpenPersistentStore(nil); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
