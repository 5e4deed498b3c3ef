package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Rates holds every tunable coefficient of the pipeline.
type Rates struct {
	// First10Percent is the share of the subtotal taken off by FIRST10.
	First10Percent decimal.Decimal
	// VIPLoyaltyPercent is the share of the subtotal taken off for vip customers.
	VIPLoyaltyPercent decimal.Decimal
	// TaxPercent is the tax rate applied to hot items, per zone.
	TaxPercent map[Zone]decimal.Decimal
	// DeliveryBase is the flat delivery fee per zone.
	DeliveryBase map[Zone]Cents
	// FrozenSurcharge is added to the delivery fee for each frozen line item.
	FrozenSurcharge Cents
}

// DefaultRates returns the storefront's standard coefficients.
func DefaultRates() Rates {
	return Rates{
		First10Percent:    decimal.NewFromInt(10),
		VIPLoyaltyPercent: decimal.NewFromInt(5),
		TaxPercent: map[Zone]decimal.Decimal{
			ZoneLocal: decimal.NewFromInt(8),
			ZoneOuter: decimal.RequireFromString("6.5"),
		},
		DeliveryBase: map[Zone]Cents{
			ZoneLocal: 499,
			ZoneOuter: 899,
		},
		FrozenSurcharge: 150,
	}
}

// Validate rejects negative amounts, percentages above 100 and zones
// without a tax rate or delivery fee.
func (r Rates) Validate() error {
	if err := checkPercent("first10 percent", r.First10Percent); err != nil {
		return err
	}
	if err := checkPercent("vip loyalty percent", r.VIPLoyaltyPercent); err != nil {
		return err
	}
	for _, z := range Zones {
		pct, ok := r.TaxPercent[z]
		if !ok {
			return errors.Errorf("tax rate for zone %q is not set", z)
		}
		if err := checkPercent("tax percent ("+string(z)+")", pct); err != nil {
			return err
		}
		fee, ok := r.DeliveryBase[z]
		if !ok {
			return errors.Errorf("delivery fee for zone %q is not set", z)
		}
		if fee < 0 {
			return errors.Errorf("delivery fee for zone %q must not be negative", z)
		}
	}
	if r.FrozenSurcharge < 0 {
		return errors.New("frozen surcharge must not be negative")
	}
	return nil
}

func checkPercent(name string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return errors.Errorf("%s must be within [0, 100], got %s", name, v)
	}
	return nil
}

// percentOf returns floor(amount * pct / 100).
func percentOf(amount Cents, pct decimal.Decimal) Cents {
	return decimal.NewFromInt(amount).Mul(pct).Div(hundred).Floor().IntPart()
}
