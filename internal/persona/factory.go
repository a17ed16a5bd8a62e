package persona

import (
	"context"
	"strings"
)

// NewStore creates a postgres-backed store when configured, otherwise the
// seeded in-memory catalog.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(SeedCatalog()), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
