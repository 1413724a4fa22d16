package policy

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/MrJamesThe3rd/tripwise/internal/document"
	"github.com/MrJamesThe3rd/tripwise/internal/http/quote"
	"github.com/MrJamesThe3rd/tripwise/internal/http/respond"
	"github.com/MrJamesThe3rd/tripwise/internal/metrics"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
	"github.com/MrJamesThe3rd/tripwise/internal/transaction"
)

type Handler struct {
	svc     *policy.Service
	docs    *document.Service
	calc    *premium.Calculator
	metrics *metrics.Metrics
}

func NewHandler(svc *policy.Service, docs *document.Service, calc *premium.Calculator, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, docs: docs, calc: calc, metrics: m}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/cancel", h.cancel)
	r.Get("/{id}/document", h.document)
}

type policyResponse struct {
	ID           string              `json:"id"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	Status       policy.Status       `json:"status"`
	CancelledAt  *time.Time          `json:"cancelledAt,omitempty"`
	PersonalInfo policy.PersonalInfo `json:"personalInfo"`
	TripInfo     policy.TripInfo     `json:"tripInfo"`
	TripType     policy.TripType     `json:"tripType"`
	Coverage     policy.Coverage     `json:"coverage"`
	HealthInfo   policy.HealthInfo   `json:"healthInfo"`
	Payment      policy.Payment      `json:"payment"`
	Consents     policy.Consents     `json:"consents"`
	IDDocument   *policy.DocumentRef `json:"idDocument,omitempty"`
	Premium      quote.Response      `json:"premium"`
}

func (h *Handler) toResponse(p *policy.Policy) policyResponse {
	q, ok := p.Quote(h.calc)

	return policyResponse{
		ID:           p.ID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Status:       p.Status,
		CancelledAt:  p.CancelledAt,
		PersonalInfo: p.PersonalInfo,
		TripInfo:     p.TripInfo,
		TripType:     p.TripType,
		Coverage:     p.Coverage,
		HealthInfo:   p.HealthInfo,
		Payment:      p.Payment,
		Consents:     p.Consents,
		IDDocument:   p.IDDocument,
		Premium:      quote.ToResponse(q, ok),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := policy.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(policy.Status(s))
	}

	from, to, err := respond.DateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter.CreatedFrom = from
	filter.CreatedTo = to

	policies, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	resp := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		resp = append(resp, h.toResponse(p))
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, h.toResponse(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var patch policy.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.metrics.ObservePolicy(string(transaction.TypePolicyUpdated))
	respond.JSON(w, http.StatusOK, h.toResponse(p))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.metrics.ObservePolicy(string(transaction.TypePolicyCancelled))
	respond.JSON(w, http.StatusOK, h.toResponse(p))
}

func (h *Handler) document(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	data, err := h.docs.Open(r.Context(), p.IDDocument)
	if err != nil {
		respond.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", p.IDDocument.MediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", "inline; filename=\""+p.ID+"_id.jpg\"")

	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write document", "policy_id", p.ID, "error", err)
	}
}
