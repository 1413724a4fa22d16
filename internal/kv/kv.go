// Package kv is the persistence collaborator: a string-keyed store of
// whole JSON values. Writes overwrite the entire value, so two writers
// racing on the same key lose one update.
package kv

import (
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"
)

// Logical keys shared by the services.
const (
	KeyUser         = "user"
	KeyPolicies     = "policies"
	KeyFormProgress = "formProgress"
	KeyTransactions = "transactions"
)

// DocumentKey namespaces uploaded document blobs.
func DocumentKey(id string) string {
	return "documents/" + id
}

//go:generate mockgen -source=kv.go -destination=store_mock.go -package=kv
type Store interface {
	// Get returns false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into v. A value that cannot be
// decoded is logged and reported as absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}

	if !ok || len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		slog.Warn("discarding unreadable stored value", "key", key, "error", err)
		return false, nil
	}

	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}
