package httpapi

import (
	"log/slog"
	"sync"
	"time"

	"github.com/taxglide/filingwizard/pkg/schema"
	"github.com/taxglide/filingwizard/pkg/store"
	"github.com/taxglide/filingwizard/pkg/wizard"
)

// registry hands out one wizard engine per filing so concurrent requests
// against the same filing share a command queue and add lock.
type registry struct {
	st        store.Store
	schemas   schema.Provider
	log       *slog.Logger
	saveDelay time.Duration

	mu      sync.Mutex
	engines map[string]*wizard.Engine
}

func newRegistry(st store.Store, schemas schema.Provider, log *slog.Logger, saveDelay time.Duration) *registry {
	return &registry{
		st:        st,
		schemas:   schemas,
		log:       log,
		saveDelay: saveDelay,
		engines:   make(map[string]*wizard.Engine),
	}
}

func (r *registry) engine(filingID string) *wizard.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[filingID]; ok {
		return e
	}
	e := wizard.New(r.st, r.schemas, filingID,
		wizard.WithLogger(r.log),
		wizard.WithSaveDelay(r.saveDelay),
	)
	r.engines[filingID] = e
	return e
}

// drop forgets an engine, used once a filing reaches a terminal state.
func (r *registry) drop(filingID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, filingID)
}
