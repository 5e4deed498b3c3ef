// Package memory provides in-process repositories for running without a
// database and for tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/pierogi-pricing/internal/domain/quote"
)

var _ quote.Repository = (*QuoteRepository)(nil)

// QuoteRepository keeps quotes in a map guarded by a mutex.
type QuoteRepository struct {
	mu     sync.RWMutex
	quotes map[string]quote.Quote
}

// NewQuoteRepository returns an empty QuoteRepository.
func NewQuoteRepository() *QuoteRepository {
	return &QuoteRepository{quotes: make(map[string]quote.Quote)}
}

// Create stores a copy of q. IDs must be unique.
func (r *QuoteRepository) Create(_ context.Context, q *quote.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.quotes[q.ID]; ok {
		return errors.Errorf("quote %q already exists", q.ID)
	}
	r.quotes[q.ID] = cloneQuote(*q)
	return nil
}

// Get returns a copy of the stored quote or quote.ErrNotFound.
func (r *QuoteRepository) Get(_ context.Context, id string) (*quote.Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.quotes[id]
	if !ok {
		return nil, quote.ErrNotFound
	}
	c := cloneQuote(q)
	return &c, nil
}

// cloneQuote copies the item slices so callers cannot mutate stored state.
func cloneQuote(q quote.Quote) quote.Quote {
	items := slices.Clone(q.Request.Order.Items)
	for i := range items {
		items[i].AddOns = slices.Clone(items[i].AddOns)
	}
	q.Request.Order.Items = items
	return q
}
