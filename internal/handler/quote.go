package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/pierogi-pricing/internal/codec"
	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
	"github.com/xenking/pierogi-pricing/internal/domain/quote"
)

// CreateQuote prices the posted order and responds 201 with the receipt.
// Malformed JSON is a 400; well-formed but invalid orders are a 422.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.record(r, quote.Request{}, "rejected")
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	req, err := codec.DecodeRequest(jx.DecodeBytes(body))
	if err != nil {
		h.record(r, req, "rejected")
		code := http.StatusBadRequest
		if errors.Is(err, pricing.ErrUnknownCoupon) {
			code = http.StatusUnprocessableEntity
		}
		writeError(w, code, err.Error())
		return
	}

	q, err := h.quotes.Price(r.Context(), req)
	if err != nil {
		outcome := "rejected"
		if statusOf(err) == http.StatusInternalServerError {
			outcome = "failed"
		}
		h.record(r, req, outcome)
		writeServiceError(w, r, err)
		return
	}

	h.record(r, req, "priced")
	h.totals.Record(r.Context(), q.Breakdown.Total, metric.WithAttributes(
		attribute.String("zone", string(req.Zone)),
	))

	var e jx.Encoder
	codec.EncodeQuote(&e, q)
	w.Header().Set("Location", "/api/quotes/"+q.ID)
	writeJSON(w, http.StatusCreated, &e)
}

// GetQuote responds with a stored receipt or 404.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.quotes.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var e jx.Encoder
	codec.EncodeQuote(&e, q)
	writeJSON(w, http.StatusOK, &e)
}

func (h *Handler) record(r *http.Request, req quote.Request, outcome string) {
	h.priced.Add(r.Context(), 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("tier", string(req.Profile.Tier)),
		attribute.String("zone", string(req.Zone)),
	))
}
