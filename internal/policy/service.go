package policy

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MrJamesThe3rd/tripwise/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=policy
type Repository interface {
	ListPolicies(ctx context.Context) ([]*Policy, error)
	SavePolicies(ctx context.Context, policies []*Policy) error
}

// Journal receives an audit entry for every policy mutation.
type Journal interface {
	Record(ctx context.Context, t transaction.Type, policyID string, at time.Time) error
}

// Service assembles, edits and cancels policies. The mutex only serialises
// read-modify-write cycles inside this process; the repository itself is
// last-write-wins.
type Service struct {
	repo    Repository
	journal Journal
	now     func() time.Time
	mu      sync.Mutex
}

type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, journal Journal, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		journal: journal,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type ListFilter struct {
	Status      *Status
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Assemble turns a completed application into a stored policy. With an
// empty editingID a new policy is created; otherwise the existing policy
// keeps its id and creation time and every group is overwritten.
func (s *Service) Assemble(ctx context.Context, app Application, editingID string) (*Policy, error) {
	if strings.TrimSpace(app.PersonalInfo.Email) == "" || strings.TrimSpace(app.PersonalInfo.Phone) == "" {
		return nil, ErrIncomplete
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	policies, err := s.repo.ListPolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading policies: %w", err)
	}

	now := s.timestamp()
	app.Consents.Timestamp = now

	var (
		p       *Policy
		txType  transaction.Type
		created bool
	)

	if editingID == "" {
		p = &Policy{
			ID:        newID(now, policies),
			CreatedAt: now,
			UpdatedAt: now,
			Status:    StatusActive,
		}
		p.setApplication(app)
		policies = append(policies, p)
		txType = transaction.TypePolicyCreated
		created = true
	} else {
		idx := indexOf(policies, editingID)
		if idx < 0 {
			return nil, ErrNotFound
		}

		p = policies[idx]
		if p.Status == StatusCancelled {
			return nil, ErrCancelled
		}

		p.setApplication(app)
		p.UpdatedAt = after(now, p.UpdatedAt)
		txType = transaction.TypePolicyUpdated
	}

	if err := s.repo.SavePolicies(ctx, policies); err != nil {
		return nil, fmt.Errorf("saving policies: %w", err)
	}

	s.record(ctx, txType, p.ID, now)

	if created {
		slog.Info("policy created", "policy_id", p.ID)
	} else {
		slog.Info("policy updated", "policy_id", p.ID)
	}

	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Policy, error) {
	policies, err := s.repo.ListPolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading policies: %w", err)
	}

	idx := indexOf(policies, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	return policies[idx], nil
}

// List returns policies newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Policy, error) {
	policies, err := s.repo.ListPolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading policies: %w", err)
	}

	out := make([]*Policy, 0, len(policies))

	for _, p := range policies {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}

		if filter.CreatedFrom != nil && p.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}

		if filter.CreatedTo != nil && p.CreatedAt.After(*filter.CreatedTo) {
			continue
		}

		out = append(out, p)
	}

	slices.SortStableFunc(out, func(a, b *Policy) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out, nil
}

// Update applies a partial change to an existing policy.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Policy, error) {
	return s.mutate(ctx, id, transaction.TypePolicyUpdated, func(p *Policy, _ time.Time) error {
		if p.Status == StatusCancelled {
			return ErrCancelled
		}

		patch.apply(p)

		return nil
	})
}

// Cancel marks a policy cancelled. Cancellation is terminal.
func (s *Service) Cancel(ctx context.Context, id string) (*Policy, error) {
	return s.mutate(ctx, id, transaction.TypePolicyCancelled, func(p *Policy, now time.Time) error {
		if p.Status == StatusCancelled {
			return ErrCancelled
		}

		p.Status = StatusCancelled
		p.CancelledAt = &now

		return nil
	})
}

// ExpireDue marks active policies whose return date lies before today as
// expired and returns their ids.
func (s *Service) ExpireDue(ctx context.Context, today time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	policies, err := s.repo.ListPolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading policies: %w", err)
	}

	cutoff := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	now := s.timestamp()

	var expired []string

	for _, p := range policies {
		if p.Status != StatusActive {
			continue
		}

		ret, err := time.Parse(time.DateOnly, p.TripInfo.ReturnDate)
		if err != nil || !ret.Before(cutoff) {
			continue
		}

		p.Status = StatusExpired
		p.UpdatedAt = after(now, p.UpdatedAt)
		expired = append(expired, p.ID)
	}

	if len(expired) == 0 {
		return nil, nil
	}

	if err := s.repo.SavePolicies(ctx, policies); err != nil {
		return nil, fmt.Errorf("saving policies: %w", err)
	}

	for _, id := range expired {
		s.record(ctx, transaction.TypePolicyUpdated, id, now)
	}

	return expired, nil
}

func (s *Service) mutate(ctx context.Context, id string, t transaction.Type, fn func(*Policy, time.Time) error) (*Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	policies, err := s.repo.ListPolicies(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading policies: %w", err)
	}

	idx := indexOf(policies, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	now := s.timestamp()
	p := policies[idx]

	if err := fn(p, now); err != nil {
		return nil, err
	}

	p.UpdatedAt = after(now, p.UpdatedAt)

	if err := s.repo.SavePolicies(ctx, policies); err != nil {
		return nil, fmt.Errorf("saving policies: %w", err)
	}

	s.record(ctx, t, p.ID, now)

	return p, nil
}

// record writes the audit entry. The policy is already persisted at this
// point, so a journal failure is logged rather than returned.
func (s *Service) record(ctx context.Context, t transaction.Type, id string, at time.Time) {
	if s.journal == nil {
		return
	}

	if err := s.journal.Record(ctx, t, id, at); err != nil {
		slog.Error("failed to record transaction", "type", t, "policy_id", id, "error", err)
	}
}

func indexOf(policies []*Policy, id string) int {
	return slices.IndexFunc(policies, func(p *Policy) bool { return p.ID == id })
}

// after returns now, or one millisecond past prev when the clock has not
// moved beyond it.
func after(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}

	return prev.Add(time.Millisecond)
}

// newID derives "POL-" plus the low eight digits of the millisecond clock,
// stepping forward until the id is unused.
func newID(now time.Time, existing []*Policy) string {
	taken := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		taken[p.ID] = struct{}{}
	}

	ms := now.UnixMilli()

	for {
		id := fmt.Sprintf("POL-%08d", ms%100_000_000)
		if _, ok := taken[id]; !ok {
			return id
		}

		ms++
	}
}
