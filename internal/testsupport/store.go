package testsupport

import (
	"context"
	"testing"

	"factorynet/internal/config"
	"factorynet/internal/store"
)

// MustOpenStore opens the episode store for cfg and closes it on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
