package quote

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
)

// ErrNotFound is returned when a quote ID is unknown.
var ErrNotFound = errors.New("quote not found")

// Request is everything needed to price one order.
type Request struct {
	Order   pricing.Order
	Profile pricing.Profile
	Coupon  pricing.Coupon
	Zone    pricing.Zone
}

// Quote is a priced order as shown on a receipt.
type Quote struct {
	ID        string
	Request   Request
	Breakdown pricing.Breakdown
	// TaxPercent is the zone rate the tax was computed with.
	TaxPercent decimal.Decimal
	CreatedAt  time.Time
}

// Repository stores issued quotes.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	Get(ctx context.Context, id string) (*Quote, error)
}
