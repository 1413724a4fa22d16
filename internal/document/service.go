package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
)

var ErrNotFound = errors.New("document not found")

//go:generate mockgen -source=service.go -destination=store_mock.go -package=document
type Store interface {
	Put(ctx context.Context, key string, data []byte, mediaType string) error
	// Get returns ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Service stores uploaded ID documents and hands out references to them.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Attach validates and stores an upload. The returned error is a
// validation.Errors for the idDocument field when the upload is rejected.
func (s *Service) Attach(ctx context.Context, name, mediaType string, data []byte) (*policy.DocumentRef, error) {
	var errs validation.Errors

	errs.Add("idDocument", validation.Document(len(data) > 0, int64(len(data)), mediaType))
	if err := errs.Err(); err != nil {
		return nil, err
	}

	key := uuid.NewString() + ".jpg"

	if err := s.store.Put(ctx, key, data, mediaType); err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}

	return &policy.DocumentRef{
		Key:        key,
		Name:       name,
		MediaType:  mediaType,
		Size:       int64(len(data)),
		UploadedAt: s.now().UTC(),
	}, nil
}

func (s *Service) Open(ctx context.Context, ref *policy.DocumentRef) ([]byte, error) {
	if ref == nil || ref.Key == "" {
		return nil, ErrNotFound
	}

	data, err := s.store.Get(ctx, ref.Key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("reading document %s: %w", ref.Key, err)
	}

	return data, nil
}

// Remove deletes the blob behind ref. A missing blob is not an error.
func (s *Service) Remove(ctx context.Context, ref *policy.DocumentRef) error {
	if ref == nil || ref.Key == "" {
		return nil
	}

	if err := s.store.Delete(ctx, ref.Key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("deleting document %s: %w", ref.Key, err)
	}

	slog.Debug("document removed", "key", ref.Key)

	return nil
}
