package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrJamesThe3rd/tripwise/internal/document"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
)

type fakeLister struct {
	policies []*policy.Policy
}

func (f *fakeLister) List(ctx context.Context, filter policy.ListFilter) ([]*policy.Policy, error) {
	return f.policies, nil
}

type fakeDocs map[string][]byte

func (f fakeDocs) Open(ctx context.Context, ref *policy.DocumentRef) ([]byte, error) {
	data, ok := f[ref.Key]
	if !ok {
		return nil, document.ErrNotFound
	}

	return data, nil
}

func testPolicy(id string, doc *policy.DocumentRef) *policy.Policy {
	created := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	return &policy.Policy{
		ID:        id,
		CreatedAt: created,
		UpdatedAt: created,
		Status:    policy.StatusActive,
		PersonalInfo: policy.PersonalInfo{
			Email:     "jan@example.com",
			Phone:     "+420 123 456 789",
			FirstName: "Jan",
			LastName:  "Novak",
		},
		TripInfo: policy.TripInfo{
			Destination:   premium.ZoneCZ,
			DepartureDate: "2025-07-01",
			ReturnDate:    "2025-07-04",
			Adults:        2,
			Children:      1,
		},
		Coverage:   policy.Coverage{MedicalLimit: premium.Tier100k, BaggageInsurance: true},
		Consents:   policy.Consents{GDPR: true, Terms: true, IPID: true, Truthfulness: true, Remote: true, Timestamp: created},
		IDDocument: doc,
	}
}

func TestExportService_Export(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "export_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	p1 := testPolicy("POL-00000001", &policy.DocumentRef{Key: "a.jpg", MediaType: "image/jpeg", Size: 4})
	p2 := testPolicy("POL-00000002", nil)
	p3 := testPolicy("POL-00000003", &policy.DocumentRef{Key: "gone.jpg", MediaType: "image/jpeg", Size: 4})

	service := NewService(
		&fakeLister{policies: []*policy.Policy{p1, p2, p3}},
		fakeDocs{"a.jpg": []byte("jpeg")},
		premium.NewCalculator(premium.DefaultTable()),
	)

	items, err := service.Export(context.Background(), policy.ListFilter{}, tmpDir)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	if items[0].Policy != p1 {
		t.Errorf("expected item 1 to be p1")
	}

	if filepath.Base(items[0].DocumentPath) != "POL-00000001_id.jpg" {
		t.Errorf("expected POL-00000001_id.jpg, got %s", filepath.Base(items[0].DocumentPath))
	}

	content, _ := os.ReadFile(items[0].DocumentPath)
	if string(content) != "jpeg" {
		t.Errorf("document content mismatch")
	}

	contract, err := os.ReadFile(items[0].ContractPath)
	if err != nil {
		t.Fatalf("reading contract: %v", err)
	}

	for _, sub := range []string{"POL-00000001", "Jan Novak", "507.00 CZK", "Baggage Insurance:", "Children:"} {
		if !strings.Contains(string(contract), sub) {
			t.Errorf("expected contract to contain %q", sub)
		}
	}

	if items[1].DocumentPath != "" {
		t.Errorf("expected empty document path for item 2, got %s", items[1].DocumentPath)
	}

	// A dangling reference is skipped, not fatal.
	if items[2].DocumentPath != "" {
		t.Errorf("expected empty document path for item 3, got %s", items[2].DocumentPath)
	}
}

func TestService_GenerateSummary(t *testing.T) {
	s := &Service{calc: premium.NewCalculator(premium.DefaultTable())}

	withDoc := testPolicy("POL-00000001", nil)
	cancelled := testPolicy("POL-00000002", nil)
	cancelled.Status = policy.StatusCancelled
	cancelled.TripInfo.Destination = ""

	items := []Item{
		{Policy: withDoc, DocumentPath: "/tmp/POL-00000001_id.jpg"},
		{Policy: cancelled},
	}

	body := s.GenerateSummary(items)

	expectedSubstrings := []string{
		"* POL-00000001 | Jan Novak | CZ 2025-07-01..2025-07-04 | 507.00 CZK | active | POL-00000001_id.jpg",
		"* POL-00000002 | Jan Novak |  2025-07-01..2025-07-04 | - | cancelled | No document",
	}

	for _, sub := range expectedSubstrings {
		if !strings.Contains(body, sub) {
			t.Errorf("expected body to contain %q", sub)
		}
	}
}
