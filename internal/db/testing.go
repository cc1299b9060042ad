package db

import (
	"context"
	"testing"
)

// NewTestStore creates a provisioned in-memory store for testing.
// The store is automatically closed when the test completes.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    store := db.NewTestStore(t)
//	    // use store...
//	}
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	store, err := OpenInMemory(context.Background())
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
