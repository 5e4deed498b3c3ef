package pricing

import (
	"cmp"
	"slices"
)

// bogoGroup identifies interchangeable items for PIEROGI-BOGO.
type bogoGroup struct {
	filling Filling
	qty     int
}

// Discounts returns the coupon discount plus the loyalty discount, capped at
// the order subtotal.
func (c *Calculator) Discounts(order Order, profile Profile, coupon Coupon) (Cents, error) {
	if err := order.Validate(); err != nil {
		return 0, err
	}
	if err := profile.Tier.Validate(); err != nil {
		return 0, err
	}
	if err := coupon.Validate(); err != nil {
		return 0, err
	}

	_, _, total := c.discountsOf(order, subtotalOf(order), profile.Tier, coupon)
	return total, nil
}

// discountsOf returns the coupon part, the loyalty part and their capped sum.
// The parts are reported uncapped so receipts can show what each rule earned.
func (c *Calculator) discountsOf(order Order, subtotal Cents, tier Tier, coupon Coupon) (couponAmt, loyaltyAmt, total Cents) {
	if len(order.Items) == 0 {
		return 0, 0, 0
	}

	switch coupon {
	case CouponBOGO:
		couponAmt = bogoDiscount(order.Items)
	case CouponFirst10:
		couponAmt = percentOf(subtotal, c.rates.First10Percent)
	}

	if tier == TierVIP {
		loyaltyAmt = percentOf(subtotal, c.rates.VIPLoyaltyPercent)
	}

	// couponAmt never exceeds subtotal, so the capped sum cannot overflow.
	return couponAmt, loyaltyAmt, couponAmt + min(loyaltyAmt, subtotal-couponAmt)
}

// bogoDiscount makes the cheaper item of every pair free. Items pair only
// within the same (filling, pack size) group, most expensive first, so the
// result does not depend on line order.
func bogoDiscount(items []Item) Cents {
	groups := make(map[bogoGroup][]Cents)
	for _, it := range items {
		key := bogoGroup{filling: it.Filling, qty: it.Qty}
		groups[key] = append(groups[key], it.UnitPriceCents)
	}

	var discount Cents
	for _, prices := range groups {
		slices.SortFunc(prices, func(a, b Cents) int {
			return cmp.Compare(b, a)
		})
		for i := 1; i < len(prices); i += 2 {
			discount += prices[i]
		}
	}
	return discount
}
