package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/tripwise/internal/document"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
)

// Item represents a single exported policy with its local file paths.
type Item struct {
	Policy       *policy.Policy
	ContractPath string
	DocumentPath string
}

type PolicyLister interface {
	List(ctx context.Context, filter policy.ListFilter) ([]*policy.Policy, error)
}

type DocumentOpener interface {
	Open(ctx context.Context, ref *policy.DocumentRef) ([]byte, error)
}

// Service writes contracts and ID documents for policies to disk.
type Service struct {
	policies PolicyLister
	docs     DocumentOpener
	calc     *premium.Calculator
}

func NewService(policies PolicyLister, docs DocumentOpener, calc *premium.Calculator) *Service {
	return &Service{
		policies: policies,
		docs:     docs,
		calc:     calc,
	}
}

// Export writes a contract text file and, when available, the ID document
// for every policy matching the filter to the output directory.
func (s *Service) Export(ctx context.Context, filter policy.ListFilter, outputDir string) ([]Item, error) {
	policies, err := s.policies.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing policies: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(policies))

	for _, p := range policies {
		item := Item{Policy: p}

		item.ContractPath = filepath.Join(outputDir, p.ID+"_contract.txt")
		if err := os.WriteFile(item.ContractPath, []byte(Contract(p, s.calc)), 0o644); err != nil {
			return nil, fmt.Errorf("writing contract for policy %s: %w", p.ID, err)
		}

		if p.IDDocument != nil {
			path, err := s.writeDocument(ctx, p, outputDir)
			if err != nil {
				return nil, fmt.Errorf("exporting document for policy %s: %w", p.ID, err)
			}

			item.DocumentPath = path
		}

		items = append(items, item)
	}

	return items, nil
}

func (s *Service) writeDocument(ctx context.Context, p *policy.Policy, dir string) (string, error) {
	data, err := s.docs.Open(ctx, p.IDDocument)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			slog.Warn("policy document missing from store", "policy_id", p.ID, "key", p.IDDocument.Key)
			return "", nil
		}

		return "", err
	}

	path := filepath.Join(dir, p.ID+"_id.jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

// GenerateSummary creates a one-line-per-policy overview of the export.
func (s *Service) GenerateSummary(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		p := item.Policy

		premiumText := "-"
		if q, ok := p.Quote(s.calc); ok {
			premiumText = q.String()
		}

		docStatus := "No document"
		if item.DocumentPath != "" {
			docStatus = filepath.Base(item.DocumentPath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s %s..%s | %s | %s | %s\n",
			p.ID,
			p.PersonalInfo.FullName(),
			p.TripInfo.Destination,
			p.TripInfo.DepartureDate,
			p.TripInfo.ReturnDate,
			premiumText,
			p.Status,
			docStatus,
		)
	}

	return sb.String()
}
