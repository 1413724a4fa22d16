package store

import (
	"context"

	"github.com/MrJamesThe3rd/tripwise/internal/kv"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
)

// Store keeps every policy in a single JSON array under kv.KeyPolicies.
type Store struct {
	kv kv.Store
}

func New(s kv.Store) *Store {
	return &Store{kv: s}
}

func (s *Store) ListPolicies(ctx context.Context) ([]*policy.Policy, error) {
	var policies []*policy.Policy

	ok, err := kv.GetJSON(ctx, s.kv, kv.KeyPolicies, &policies)
	if err != nil || !ok {
		return nil, err
	}

	return policies, nil
}

func (s *Store) SavePolicies(ctx context.Context, policies []*policy.Policy) error {
	return kv.SetJSON(ctx, s.kv, kv.KeyPolicies, policies)
}
