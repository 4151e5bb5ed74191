package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taxglide/filingwizard/pkg/review"
	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/store"
)

// New wires the full API router.
func New(st store.Store, schemas schema.Provider, log *slog.Logger, saveDelay time.Duration) *chi.Mux {
	engines := newRegistry(st, schemas, log, saveDelay)
	h := NewHandler(st, schemas, review.NewBuilder(nil), engines, log)

	r := chi.NewRouter()
	r.Use(recovery(log))
	r.Use(requestLogger(log))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/filings", h.CreateFiling)
		r.Route("/filings/{filingID}", func(r chi.Router) {
			r.Get("/", h.GetFiling)
			r.Get("/view", h.GetView)
			r.Post("/commands", h.Dispatch)
			r.Put("/answers", h.SetAnswer)
			r.Get("/pricing", h.GetPricing)
			r.Get("/review", h.GetReview)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
