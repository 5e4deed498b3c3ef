package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pierogi-pricing/internal/codec"
	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
	"github.com/xenking/pierogi-pricing/internal/domain/quote"
)

var _ quote.Repository = (*QuoteRepository)(nil)

const insertQuote = `
INSERT INTO quotes (
    id, items, tier, coupon_code, zone,
    subtotal, coupon_discount, loyalty_discount, discount, discounted_base,
    tax_percent, tax, delivery, total, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const selectQuote = `
SELECT id::text, items, tier, coupon_code, zone,
       subtotal, coupon_discount, loyalty_discount, discount, discounted_base,
       tax_percent, tax, delivery, total, created_at
FROM quotes
WHERE id = $1`

// QuoteRepository implements quote.Repository backed by PostgreSQL.
type QuoteRepository struct {
	pool *pgxpool.Pool
}

// NewQuoteRepository returns a QuoteRepository that uses the given pool.
func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// Create persists a quote. Line items are stored as a JSONB array.
func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	var e jx.Encoder
	codec.EncodeItems(&e, q.Request.Order.Items)

	b := q.Breakdown
	_, err := r.pool.Exec(ctx, insertQuote,
		q.ID,
		e.Bytes(),
		string(q.Request.Profile.Tier),
		string(q.Request.Coupon),
		string(q.Request.Zone),
		b.Subtotal,
		b.CouponDiscount,
		b.LoyaltyDiscount,
		b.Discount,
		b.DiscountedBase,
		q.TaxPercent,
		b.Tax,
		b.Delivery,
		b.Total,
		q.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert quote %q", q.ID)
	}
	return nil
}

// Get loads a quote by ID. Returns quote.ErrNotFound when no row matches.
func (r *QuoteRepository) Get(ctx context.Context, id string) (*quote.Quote, error) {
	var (
		q                  quote.Quote
		items              []byte
		tier, coupon, zone string
		b                  = &q.Breakdown
	)
	err := r.pool.QueryRow(ctx, selectQuote, id).Scan(
		&q.ID,
		&items,
		&tier,
		&coupon,
		&zone,
		&b.Subtotal,
		&b.CouponDiscount,
		&b.LoyaltyDiscount,
		&b.Discount,
		&b.DiscountedBase,
		&q.TaxPercent,
		&b.Tax,
		&b.Delivery,
		&b.Total,
		&q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, quote.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select quote %q", id)
	}

	q.Request.Order.Items, err = codec.DecodeItems(jx.DecodeBytes(items))
	if err != nil {
		return nil, errors.Wrapf(err, "decode items of quote %q", id)
	}
	q.Request.Profile.Tier = pricing.Tier(tier)
	q.Request.Coupon = pricing.Coupon(coupon)
	q.Request.Zone = pricing.Zone(zone)
	q.CreatedAt = q.CreatedAt.UTC()

	return &q, nil
}
