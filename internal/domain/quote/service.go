package quote

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
)

// Service prices orders and keeps the resulting receipts.
type Service struct {
	calc   *pricing.Calculator
	quotes Repository
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates a quote Service.
func NewService(calc *pricing.Calculator, quotes Repository, tp trace.TracerProvider) *Service {
	return &Service{
		calc:   calc,
		quotes: quotes,
		tracer: tp.Tracer("github.com/xenking/pierogi-pricing/internal/domain/quote"),
		now:    time.Now,
	}
}

// Price validates and prices the request, then persists the quote.
func (s *Service) Price(ctx context.Context, req Request) (*Quote, error) {
	ctx, span := s.tracer.Start(ctx, "quote.Price",
		trace.WithAttributes(
			attribute.Int("pricing.items", len(req.Order.Items)),
			attribute.String("pricing.tier", string(req.Profile.Tier)),
			attribute.String("pricing.coupon", string(req.Coupon)),
			attribute.String("pricing.zone", string(req.Zone)),
		),
	)
	defer span.End()

	q, err := s.price(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("quote.id", q.ID),
		attribute.Int64("pricing.subtotal", q.Breakdown.Subtotal),
		attribute.Int64("pricing.discount", q.Breakdown.Discount),
		attribute.Int64("pricing.tax", q.Breakdown.Tax),
		attribute.Int64("pricing.delivery", q.Breakdown.Delivery),
		attribute.Int64("pricing.total", q.Breakdown.Total),
	)
	return q, nil
}

func (s *Service) price(ctx context.Context, req Request) (*Quote, error) {
	b, err := s.calc.Quote(req.Order, req.Profile, req.Coupon, req.Zone)
	if err != nil {
		return nil, errors.Wrap(err, "price order")
	}

	q := &Quote{
		ID:         uuid.New().String(),
		Request:    req,
		Breakdown:  b,
		TaxPercent: s.calc.Rates().TaxPercent[req.Zone],
		CreatedAt:  s.now().UTC(),
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, errors.Wrap(err, "create quote")
	}
	return q, nil
}

// Get returns a previously issued quote.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get quote")
	}
	return q, nil
}

// PriceBatch prices independent requests with at most workers in flight.
// Results keep the input order. The first failure cancels the rest.
func (s *Service) PriceBatch(ctx context.Context, reqs []Request, workers int) ([]*Quote, error) {
	out := make([]*Quote, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			q, err := s.Price(ctx, req)
			if err != nil {
				return errors.Wrapf(err, "request %d", i)
			}
			out[i] = q
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
