package export

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/MrJamesThe3rd/tripwise/internal/export"
	"github.com/MrJamesThe3rd/tripwise/internal/http/respond"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	Status    *policy.Status `json:"status,omitempty"`
	StartDate *time.Time     `json:"start_date,omitempty"`
	EndDate   *time.Time     `json:"end_date,omitempty"`
}

func (req exportRequest) filter() policy.ListFilter {
	return policy.ListFilter{
		Status:      req.Status,
		CreatedFrom: req.StartDate,
		CreatedTo:   req.EndDate,
	}
}

type itemResponse struct {
	PolicyID    string        `json:"policy_id"`
	Name        string        `json:"name"`
	Status      policy.Status `json:"status"`
	HasDocument bool          `json:"has_document"`
}

type exportMetadataResponse struct {
	Policies []itemResponse `json:"policies"`
	Summary  string         `json:"summary"`
}

// run exports into a fresh temp dir. The caller removes the dir.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) (string, []export.Item, bool) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", nil, false
	}

	tmpDir, err := os.MkdirTemp("", "tripwise-export-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return "", nil, false
	}

	items, err := h.svc.Export(r.Context(), req.filter(), tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		respond.Error(w, err)

		return "", nil, false
	}

	return tmpDir, items, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	tmpDir, items, ok := h.run(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(tmpDir)

	resp := exportMetadataResponse{
		Policies: make([]itemResponse, 0, len(items)),
		Summary:  h.svc.GenerateSummary(items),
	}

	for _, item := range items {
		resp.Policies = append(resp.Policies, itemResponse{
			PolicyID:    item.Policy.ID,
			Name:        item.Policy.PersonalInfo.FullName(),
			Status:      item.Policy.Status,
			HasDocument: item.DocumentPath != "",
		})
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	tmpDir, items, ok := h.run(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(tmpDir)

	summary := h.svc.GenerateSummary(items)
	if err := os.WriteFile(filepath.Join(tmpDir, "summary.txt"), []byte(summary), 0o644); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"policies_%s.zip\"", time.Now().Format("20060102")))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	err := filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, _ := filepath.Rel(tmpDir, path)

		zf, err := zipWriter.Create(relPath)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}
