package quote

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tripwise/internal/http/respond"
	"github.com/MrJamesThe3rd/tripwise/internal/metrics"
	"github.com/MrJamesThe3rd/tripwise/internal/premium"
)

type Handler struct {
	calc    *premium.Calculator
	metrics *metrics.Metrics
}

func NewHandler(calc *premium.Calculator, m *metrics.Metrics) *Handler {
	return &Handler{calc: calc, metrics: m}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
}

// Response is the JSON shape of a live estimate.
type Response struct {
	Available bool   `json:"available"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Days      int    `json:"days,omitempty"`
	Display   string `json:"display"`
}

// ToResponse renders an unavailable quote as "-".
func ToResponse(q premium.Quote, ok bool) Response {
	if !ok {
		return Response{Display: "-"}
	}

	return Response{
		Available: true,
		Amount:    q.Amount.StringFixed(2),
		Currency:  q.Currency.String(),
		Days:      q.Days,
		Display:   q.String(),
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := premium.Request{
		Zone:   premium.Zone(query.Get("destination")),
		Tier:   premium.Tier(query.Get("medicalLimit")),
		Adults: 1,
	}

	if s := query.Get("departureDate"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			req.Departure = t
		}
	}

	if s := query.Get("returnDate"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			req.Return = t
		}
	}

	if s := query.Get("adults"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, "invalid adults", http.StatusBadRequest)
			return
		}

		req.Adults = n
	}

	if s := query.Get("children"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, "invalid children", http.StatusBadRequest)
			return
		}

		req.Children = n
	}

	q, ok := h.calc.Quote(req)
	h.metrics.ObserveQuote(string(req.Zone), ok)

	respond.JSON(w, http.StatusOK, ToResponse(q, ok))
}
