package document

import (
	"context"

	"github.com/MrJamesThe3rd/tripwise/internal/kv"
)

// KVStore keeps blobs in the shared key-value store under kv.DocumentKey.
// The media type lives on the reference, not next to the bytes.
type KVStore struct {
	kv kv.Store
}

func NewKVStore(s kv.Store) *KVStore {
	return &KVStore{kv: s}
}

func (s *KVStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	return s.kv.Set(ctx, kv.DocumentKey(key), data)
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok, err := s.kv.Get(ctx, kv.DocumentKey(key))
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrNotFound
	}

	return data, nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	return s.kv.Remove(ctx, kv.DocumentKey(key))
}
