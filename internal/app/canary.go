package app

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
	"github.com/xenking/pierogi-pricing/pkg/health"
)

var canaryOrder = pricing.Order{Items: []pricing.Item{
	{Kind: pricing.KindHot, SKU: "CANARY-HOT", Filling: pricing.FillingPotato, Qty: 12, UnitPriceCents: 1000},
	{Kind: pricing.KindFrozen, SKU: "CANARY-FROZEN", Filling: pricing.FillingMushroom, Qty: 24, UnitPriceCents: 2000},
}}

// CanaryCheck prices a fixed order in every zone and fails if the receipt
// does not add up.
func CanaryCheck(calc *pricing.Calculator) health.CheckFunc {
	return func(context.Context) error {
		for _, zone := range pricing.Zones {
			b, err := calc.Quote(canaryOrder, pricing.Profile{Tier: pricing.TierRegular}, pricing.CouponFirst10, zone)
			if err != nil {
				return errors.Wrapf(err, "price canary order in %s", zone)
			}
			if b.Total < 0 || b.Total != b.Subtotal-b.Discount+b.Tax+b.Delivery {
				return errors.Errorf("canary receipt for %s does not add up: %+v", zone, b)
			}
		}
		return nil
	}
}
