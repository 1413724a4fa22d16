package wizard

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/MrJamesThe3rd/tripwise/internal/http/quote"
	"github.com/MrJamesThe3rd/tripwise/internal/http/respond"
	"github.com/MrJamesThe3rd/tripwise/internal/metrics"
	"github.com/MrJamesThe3rd/tripwise/internal/transaction"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
	"github.com/MrJamesThe3rd/tripwise/internal/wizard"
)

const (
	maxBodyBytes = 64 << 10
	// Room for the 2 MiB document limit plus multipart framing.
	maxUploadBytes = 3 << 20

	documentField = "idDocument"
)

type Handler struct {
	ctrl    *wizard.Controller
	metrics *metrics.Metrics
}

func NewHandler(ctrl *wizard.Controller, m *metrics.Metrics) *Handler {
	return &Handler{ctrl: ctrl, metrics: m}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Delete("/", h.abandon)
	r.Post("/next", h.next)
	r.Post("/previous", h.previous)
	r.Post("/jump", h.jump)
	r.Post("/document", h.attach)
	r.Delete("/document", h.detach)
	r.Post("/submit", h.submit)
	r.Post("/edit/{id}", h.edit)
}

type stateResponse struct {
	Step     wizard.Step    `json:"step"`
	StepName string         `json:"stepName"`
	Reached  wizard.Step    `json:"reached"`
	Draft    wizard.Draft   `json:"draft"`
	Quote    quote.Response `json:"quote"`
}

func (h *Handler) writeState(w http.ResponseWriter, s wizard.State) {
	q, ok := h.ctrl.Quote()

	respond.JSON(w, http.StatusOK, stateResponse{
		Step:     s.Step,
		StepName: s.Step.String(),
		Reached:  s.Reached,
		Draft:    s.Draft,
		Quote:    quote.ToResponse(q, ok),
	})
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	h.metrics.ObserveTransition(action, err)

	if errs, ok := wizard.FieldErrors(err); ok {
		fields := make([]string, 0, len(errs))
		for _, fe := range errs {
			fields = append(fields, fe.Field)
		}

		h.metrics.ObserveValidation(fields...)
	}

	respond.Error(w, err)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.ctrl.State(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.writeState(w, s)
}

// readInput decodes the body as the input of the current step. An empty
// body yields a nil input.
func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (wizard.Input, bool) {
	s, err := h.ctrl.State(r.Context())
	if err != nil {
		respond.Error(w, err)
		return nil, false
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("reading body: %v", err), http.StatusBadRequest)
		return nil, false
	}

	if len(raw) == 0 {
		return nil, true
	}

	in, err := wizard.DecodeInput(s.Step, raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	return in, true
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	s, err := h.ctrl.Next(r.Context(), in)
	if err != nil {
		h.fail(w, "next", err)
		return
	}

	h.metrics.ObserveTransition("next", nil)
	h.writeState(w, s)
}

func (h *Handler) previous(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}

	s, err := h.ctrl.Previous(r.Context(), in)
	if err != nil {
		h.fail(w, "previous", err)
		return
	}

	h.metrics.ObserveTransition("previous", nil)
	h.writeState(w, s)
}

type jumpRequest struct {
	Step wizard.Step `json:"step"`
}

func (h *Handler) jump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, err := h.ctrl.JumpTo(r.Context(), req.Step)
	if err != nil {
		h.fail(w, "jump", err)
		return
	}

	h.metrics.ObserveTransition("jump", nil)
	h.writeState(w, s)
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if tooLarge(err) {
			respond.Error(w, validation.Errors{{Field: documentField, Reason: validation.ReasonDocumentTooLarge}})
			return
		}

		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			respond.Error(w, validation.Errors{{Field: documentField, Reason: validation.ReasonDocumentTooLarge}})
			return
		}

		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	s, err := h.ctrl.AttachDocument(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.fail(w, "attach", err)
		return
	}

	h.writeState(w, s)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func (h *Handler) detach(w http.ResponseWriter, r *http.Request) {
	s, err := h.ctrl.DetachDocument(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.writeState(w, s)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var in wizard.Checkout
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	editing := false
	if s, err := h.ctrl.State(r.Context()); err == nil {
		editing = s.Draft.EditingID != ""
	}

	p, err := h.ctrl.Submit(r.Context(), in)
	if err != nil {
		h.fail(w, "submit", err)
		return
	}

	h.metrics.ObserveTransition("submit", nil)

	event := transaction.TypePolicyCreated
	if editing {
		event = transaction.TypePolicyUpdated
	}

	h.metrics.ObservePolicy(string(event))

	respond.JSON(w, http.StatusCreated, p)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	s, err := h.ctrl.Edit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.writeState(w, s)
}

func (h *Handler) abandon(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Abandon(r.Context()); err != nil {
		respond.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
