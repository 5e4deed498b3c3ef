package pricing

import (
	"maps"

	"github.com/go-faster/errors"
)

var errTotalOverflow = errors.Wrap(ErrInvalidOrder, "order total overflows")

// Breakdown is the itemized result of pricing one order.
type Breakdown struct {
	Subtotal        Cents
	CouponDiscount  Cents
	LoyaltyDiscount Cents
	// Discount is CouponDiscount + LoyaltyDiscount capped at Subtotal.
	Discount       Cents
	DiscountedBase Cents
	Tax            Cents
	Delivery       Cents
	Total          Cents
}

// Calculator runs the pricing pipeline with a fixed set of rates.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	rates Rates
}

// NewCalculator validates rates and returns a Calculator using a private
// copy of them.
func NewCalculator(rates Rates) (*Calculator, error) {
	if err := rates.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate rates")
	}
	rates.TaxPercent = maps.Clone(rates.TaxPercent)
	rates.DeliveryBase = maps.Clone(rates.DeliveryBase)
	return &Calculator{rates: rates}, nil
}

// Rates returns a copy of the calculator's rates.
func (c *Calculator) Rates() Rates {
	r := c.rates
	r.TaxPercent = maps.Clone(r.TaxPercent)
	r.DeliveryBase = maps.Clone(r.DeliveryBase)
	return r
}

// Quote runs the whole pipeline and returns every intermediate amount.
func (c *Calculator) Quote(order Order, profile Profile, coupon Coupon, zone Zone) (Breakdown, error) {
	if err := validateAll(order, profile.Tier, coupon, zone); err != nil {
		return Breakdown{}, err
	}

	subtotal := subtotalOf(order)
	couponAmt, loyaltyAmt, discount := c.discountsOf(order, subtotal, profile.Tier, coupon)
	base := max(subtotal-discount, 0)

	delivery, err := c.deliveryOf(order, zone, profile.Tier)
	if err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{
		Subtotal:        subtotal,
		CouponDiscount:  couponAmt,
		LoyaltyDiscount: loyaltyAmt,
		Discount:        discount,
		DiscountedBase:  base,
		Tax:             c.taxOf(order, subtotal, zone, discount),
		Delivery:        delivery,
	}
	total, ok := addCents(b.DiscountedBase, b.Tax)
	if ok {
		total, ok = addCents(total, b.Delivery)
	}
	if !ok {
		return Breakdown{}, errTotalOverflow
	}
	b.Total = total
	return b, nil
}

// Total returns discounted base + tax + delivery.
func (c *Calculator) Total(order Order, profile Profile, coupon Coupon, zone Zone) (Cents, error) {
	b, err := c.Quote(order, profile, coupon, zone)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

func validateAll(order Order, tier Tier, coupon Coupon, zone Zone) error {
	if err := order.Validate(); err != nil {
		return err
	}
	if err := tier.Validate(); err != nil {
		return err
	}
	if err := coupon.Validate(); err != nil {
		return err
	}
	return zone.Validate()
}

var defaultCalculator = func() *Calculator {
	c, err := NewCalculator(DefaultRates())
	if err != nil {
		panic(err)
	}
	return c
}()

// Subtotal prices order with the default rates.
func Subtotal(order Order) (Cents, error) {
	return defaultCalculator.Subtotal(order)
}

// Discounts prices order with the default rates.
func Discounts(order Order, profile Profile, coupon Coupon) (Cents, error) {
	return defaultCalculator.Discounts(order, profile, coupon)
}

// Tax prices order with the default rates.
func Tax(order Order, zone Zone, discount Cents) (Cents, error) {
	return defaultCalculator.Tax(order, zone, discount)
}

// Delivery prices order with the default rates.
func Delivery(order Order, zone Zone, tier Tier) (Cents, error) {
	return defaultCalculator.Delivery(order, zone, tier)
}

// Total prices order with the default rates.
func Total(order Order, profile Profile, coupon Coupon, zone Zone) (Cents, error) {
	return defaultCalculator.Total(order, profile, coupon, zone)
}
