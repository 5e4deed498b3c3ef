// Package handler serves the pricing HTTP API.
package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/pierogi-pricing/internal/codec"
	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
	"github.com/xenking/pierogi-pricing/internal/domain/quote"
)

// maxBodyBytes bounds quote request bodies.
const maxBodyBytes = 1 << 20

// Handler implements the /api routes on top of the quote service.
type Handler struct {
	quotes *quote.Service
	rates  pricing.Rates

	priced metric.Int64Counter
	totals metric.Int64Histogram
}

// NewHandler creates a Handler. rates is what GET /api/rates reports and
// should be the rate set the service prices with.
func NewHandler(quotes *quote.Service, rates pricing.Rates, mp metric.MeterProvider) (*Handler, error) {
	meter := mp.Meter("github.com/xenking/pierogi-pricing/internal/handler")

	priced, err := meter.Int64Counter("pricing.quotes",
		metric.WithDescription("Quote requests by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create quotes counter")
	}
	totals, err := meter.Int64Histogram("pricing.quote.total_cents",
		metric.WithDescription("Quoted order totals"),
		metric.WithUnit("{cent}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create totals histogram")
	}

	return &Handler{
		quotes: quotes,
		rates:  rates,
		priced: priced,
		totals: totals,
	}, nil
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/quotes", h.CreateQuote)
	mux.HandleFunc("GET /api/quotes/{id}", h.GetQuote)
	mux.HandleFunc("GET /api/rates", h.GetRates)
}

// GetRates reports the active rate configuration.
func (h *Handler) GetRates(w http.ResponseWriter, _ *http.Request) {
	var e jx.Encoder
	codec.EncodeRates(&e, h.rates)
	writeJSON(w, http.StatusOK, &e)
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	var itemErr *pricing.InvalidItemError
	switch {
	case errors.As(err, &itemErr),
		errors.Is(err, pricing.ErrInvalidOrder),
		errors.Is(err, pricing.ErrUnknownTier),
		errors.Is(err, pricing.ErrUnknownZone),
		errors.Is(err, pricing.ErrUnknownCoupon),
		errors.Is(err, pricing.ErrInvalidDiscount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, quote.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError responds with the status for err. Server errors are
// logged and their details hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request error", zap.Error(err))
		msg = "internal server error"
	}
	writeError(w, code, msg)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	var e jx.Encoder
	codec.EncodeError(&e, code, msg)
	writeJSON(w, code, &e)
}

func writeJSON(w http.ResponseWriter, code int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
