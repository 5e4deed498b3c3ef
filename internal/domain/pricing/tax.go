package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidDiscount is returned when a discount outside [0, subtotal] is
// passed to Tax.
var ErrInvalidDiscount = errors.New("discount out of range")

// Tax returns the tax owed on the hot items of order after discount.
//
// The discount is spread over hot and frozen items in proportion to their
// share of the subtotal, so only the hot share reduces the taxable base.
func (c *Calculator) Tax(order Order, zone Zone, discount Cents) (Cents, error) {
	if err := order.Validate(); err != nil {
		return 0, err
	}
	if err := zone.Validate(); err != nil {
		return 0, err
	}
	subtotal := subtotalOf(order)
	if discount < 0 || discount > subtotal {
		return 0, errors.Wrapf(ErrInvalidDiscount, "discount %d with subtotal %d", discount, subtotal)
	}
	return c.taxOf(order, subtotal, zone, discount), nil
}

func (c *Calculator) taxOf(order Order, subtotal Cents, zone Zone, discount Cents) Cents {
	if subtotal == 0 {
		return 0
	}
	base := taxableBase(hotSubtotalOf(order), subtotal, discount)
	if base == 0 {
		return 0
	}
	return percentOf(base, c.rates.TaxPercent[zone])
}

// taxableBase returns floor(hot - discount*hot/subtotal), never below zero.
func taxableBase(hot, subtotal, discount Cents) Cents {
	if subtotal == 0 || hot == 0 {
		return 0
	}
	allocated := decimal.NewFromInt(discount).
		Mul(decimal.NewFromInt(hot)).
		Div(decimal.NewFromInt(subtotal))
	base := decimal.NewFromInt(hot).Sub(allocated).Floor().IntPart()
	return max(base, 0)
}
