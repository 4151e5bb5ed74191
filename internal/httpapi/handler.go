// Package httpapi exposes the wizard over HTTP: filings are created and
// inspected as resources, and wizard interaction happens by POSTing
// commands and PUTting answers, each returning the refreshed view.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taxglide/filingwizard/pkg/filing"
	"github.com/taxglide/filingwizard/pkg/review"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/store"
	"github.com/taxglide/filingwizard/pkg/wizard"
)

// Handler carries the wired dependencies for every endpoint.
type Handler struct {
	st      store.Store
	schemas schema.Provider
	reviews *review.Builder
	engines *registry
	log     *slog.Logger
}

func NewHandler(st store.Store, schemas schema.Provider, reviews *review.Builder, engines *registry, log *slog.Logger) *Handler {
	return &Handler{st: st, schemas: schemas, reviews: reviews, engines: engines, log: log}
}

// CreateFiling opens a new draft filing.
func (h *Handler) CreateFiling(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string `json:"ownerId"`
		Year    int    `json:"year"`
		Kind    string `json:"kind"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind, err := filing.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		writeError(w, http.StatusBadRequest, "ownerId is required")
		return
	}
	if req.Year < 2000 || req.Year > 2100 {
		writeError(w, http.StatusBadRequest, "year out of range")
		return
	}
	if _, err := h.schemas.Schema(req.Year, kind); err != nil {
		writeError(w, http.StatusBadRequest, "no questionnaire for that year and kind")
		return
	}

	f := &filing.Filing{
		OwnerID: req.OwnerID,
		Year:    req.Year,
		Kind:    kind,
		Status:  filing.StatusDraft,
	}
	if err := h.st.CreateFiling(r.Context(), f); err != nil {
		writeError(w, http.StatusInternalServerError, "could not create filing")
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// GetFiling returns the stored filing aggregate.
func (h *Handler) GetFiling(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFiling(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// GetView returns the current wizard projection without changing anything.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "filingID")
	writeJSON(w, http.StatusOK, h.engines.engine(id).View())
}

// Dispatch applies one wizard command.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "filingID")
	var cmd wizard.Command
	if err := readJSON(r, &cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.engines.engine(id).Dispatch(r.Context(), cmd)
	if err != nil {
		h.writeDispatchError(w, id, view, err)
		return
	}
	if view.Phase.Terminal() {
		h.engines.drop(id)
	}
	writeJSON(w, http.StatusOK, view)
}

// SetAnswer stores one answer on the active record.
func (h *Handler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "filingID")
	var req struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	view, err := h.engines.engine(id).SetAnswer(r.Context(), req.Key, req.Value)
	if err != nil {
		h.writeDispatchError(w, id, view, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetReview returns the pre-submission summary.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFiling(w, r)
	if !ok {
		return
	}
	sch, err := h.schemas.Schema(f.Year, f.Kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "questionnaire unavailable")
		return
	}

	var summary review.Summary
	if f.Kind.Entity() {
		biz, err := h.st.Business(r.Context(), f.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "could not load records")
			return
		}
		summary = h.reviews.Build(f, sch, nil, biz)
	} else {
		persons, err := h.st.Persons(r.Context(), f.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not load records")
			return
		}
		summary = h.reviews.Build(f, sch, persons, nil)
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetPricing returns the fee quote portion of the review summary.
func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "filingID")
	view := h.engines.engine(id).View()
	if view.Pricing == nil {
		writeError(w, http.StatusConflict, "wizard not initialised; dispatch INIT first")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quote":          view.Pricing,
		"amountDueCents": view.AmountDueCents,
		"noPaymentDue":   view.NoPaymentDue,
	})
}

func (h *Handler) loadFiling(w http.ResponseWriter, r *http.Request) (*filing.Filing, bool) {
	id := chi.URLParam(r, "filingID")
	f, err := h.st.Filing(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "filing not found")
		} else {
			writeError(w, http.StatusInternalServerError, "could not load filing")
		}
		return nil, false
	}
	return f, true
}

// writeDispatchError maps engine errors onto HTTP statuses. The view still
// rides along so the client can re-render its state.
func (h *Handler) writeDispatchError(w http.ResponseWriter, filingID string, view wizard.View, err error) {
	status := http.StatusBadRequest
	var te *wizard.TransportError
	switch {
	case errors.As(err, &te):
		status = http.StatusBadGateway
	case errors.Is(err, wizard.ErrTerminal):
		status = http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	}
	h.log.Warn("dispatch failed", "filing", filingID, "error", err)
	writeJSON(w, status, map[string]any{"error": err.Error(), "view": view})
}
