package transaction

import (
	"context"
	"fmt"
	"sync"
	"time"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	ListTransactions(ctx context.Context) ([]*Transaction, error)
	SaveTransactions(ctx context.Context, txs []*Transaction) error
}

// Service maintains the append-only audit log, newest entry first.
type Service struct {
	repo Repository
	mu   sync.Mutex
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ListFilter struct {
	PolicyID  string
	StartDate *time.Time
	EndDate   *time.Time
}

// Append records an event. A blank description is derived from the type.
func (s *Service) Append(ctx context.Context, tx Transaction) error {
	if tx.Type == "" || tx.PolicyID == "" {
		return ErrInvalid
	}

	if tx.Description == "" {
		tx.Description = describe(tx.Type, tx.PolicyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("loading transactions: %w", err)
	}

	txs = append([]*Transaction{&tx}, txs...)
	if len(txs) > MaxEntries {
		txs = txs[:MaxEntries]
	}

	if err := s.repo.SaveTransactions(ctx, txs); err != nil {
		return fmt.Errorf("saving transactions: %w", err)
	}

	return nil
}

// Record appends an event stamped at the given time.
func (s *Service) Record(ctx context.Context, t Type, policyID string, at time.Time) error {
	return s.Append(ctx, Transaction{Type: t, PolicyID: policyID, Timestamp: at})
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}

	out := make([]*Transaction, 0, len(txs))

	for _, tx := range txs {
		if filter.PolicyID != "" && tx.PolicyID != filter.PolicyID {
			continue
		}

		if filter.StartDate != nil && tx.Timestamp.Before(*filter.StartDate) {
			continue
		}

		if filter.EndDate != nil && tx.Timestamp.After(*filter.EndDate) {
			continue
		}

		out = append(out, tx)
	}

	return out, nil
}

func (s *Service) ListByPolicy(ctx context.Context, policyID string) ([]*Transaction, error) {
	return s.List(ctx, ListFilter{PolicyID: policyID})
}
