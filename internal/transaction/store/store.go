package store

import (
	"context"

	"github.com/MrJamesThe3rd/tripwise/internal/kv"
	"github.com/MrJamesThe3rd/tripwise/internal/transaction"
)

// Store persists the whole audit log as one JSON array under kv.KeyTransactions.
type Store struct {
	kv kv.Store
}

func New(s kv.Store) *Store {
	return &Store{kv: s}
}

func (s *Store) ListTransactions(ctx context.Context) ([]*transaction.Transaction, error) {
	var txs []*transaction.Transaction

	ok, err := kv.GetJSON(ctx, s.kv, kv.KeyTransactions, &txs)
	if err != nil || !ok {
		return nil, err
	}

	return txs, nil
}

func (s *Store) SaveTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	return kv.SetJSON(ctx, s.kv, kv.KeyTransactions, txs)
}
