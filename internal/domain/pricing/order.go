// Package pricing prices storefront orders: subtotal, discounts, tax,
// delivery and the grand total, all in integer minor currency units.
package pricing

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-faster/errors"
)

// Cents is a monetary amount in minor currency units.
type Cents = int64

// Sentinel errors for rejected inputs.
var (
	ErrInvalidOrder  = errors.New("invalid order")
	ErrUnknownTier   = errors.New("unknown loyalty tier")
	ErrUnknownZone   = errors.New("unknown delivery zone")
	ErrUnknownCoupon = errors.New("unknown coupon code")
)

// InvalidItemError reports the first offending field of a line item.
type InvalidItemError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("item %d: %s: %s", e.Index, e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidOrder) hold for item errors.
func (e *InvalidItemError) Unwrap() error {
	return ErrInvalidOrder
}

// Kind separates prepared food from frozen groceries.
type Kind string

const (
	KindHot    Kind = "hot"
	KindFrozen Kind = "frozen"
)

// Filling groups items for the buy-one-get-one rule.
type Filling string

const (
	FillingPotato      Filling = "potato"
	FillingSauerkraut  Filling = "sauerkraut"
	FillingSweetCheese Filling = "sweet-cheese"
	FillingMushroom    Filling = "mushroom"
)

// AddOn is an informational modifier. Its price is already part of the
// item's unit price.
type AddOn string

const (
	AddOnSourCream  AddOn = "sour-cream"
	AddOnFriedOnion AddOn = "fried-onion"
	AddOnBaconBits  AddOn = "bacon-bits"
)

// MaxAddOns is the largest number of add-ons a single item may carry. Each
// add-on may appear at most once.
const MaxAddOns = 3

// Tier is the customer's loyalty level.
type Tier string

const (
	TierGuest   Tier = "guest"
	TierRegular Tier = "regular"
	TierVIP     Tier = "vip"
)

// Zone is the delivery and tax jurisdiction.
type Zone string

const (
	ZoneLocal Zone = "local"
	ZoneOuter Zone = "outer"
)

// Zones lists every supported zone.
var Zones = []Zone{ZoneLocal, ZoneOuter}

// Coupon is a promotional code. The zero value means no coupon.
type Coupon string

const (
	CouponNone    Coupon = ""
	CouponBOGO    Coupon = "PIEROGI-BOGO"
	CouponFirst10 Coupon = "FIRST10"
)

// Item is a single order line, priced upstream by the catalog.
type Item struct {
	Kind           Kind
	SKU            string
	Title          string
	Filling        Filling
	Qty            int
	UnitPriceCents Cents
	AddOns         []AddOn
}

// Order is an ordered sequence of line items.
type Order struct {
	Items []Item
}

// Profile describes the customer placing the order.
type Profile struct {
	Tier Tier
}

func (k Kind) valid() bool {
	return k == KindHot || k == KindFrozen
}

func (f Filling) valid() bool {
	switch f {
	case FillingPotato, FillingSauerkraut, FillingSweetCheese, FillingMushroom:
		return true
	}
	return false
}

func (a AddOn) valid() bool {
	switch a {
	case AddOnSourCream, AddOnFriedOnion, AddOnBaconBits:
		return true
	}
	return false
}

func validPackSize(qty int) bool {
	return qty == 6 || qty == 12 || qty == 24
}

// Validate checks a single line item. idx is used for error reporting.
func (it Item) Validate(idx int) error {
	switch {
	case !it.Kind.valid():
		return &InvalidItemError{Index: idx, Field: "kind", Reason: fmt.Sprintf("unknown kind %q", it.Kind)}
	case !it.Filling.valid():
		return &InvalidItemError{Index: idx, Field: "filling", Reason: fmt.Sprintf("unknown filling %q", it.Filling)}
	case !validPackSize(it.Qty):
		return &InvalidItemError{Index: idx, Field: "qty", Reason: fmt.Sprintf("pack size %d not one of 6, 12, 24", it.Qty)}
	case it.UnitPriceCents < 0:
		return &InvalidItemError{Index: idx, Field: "unitPriceCents", Reason: "must not be negative"}
	case len(it.AddOns) > MaxAddOns:
		return &InvalidItemError{Index: idx, Field: "addOns", Reason: fmt.Sprintf("at most %d add-ons allowed", MaxAddOns)}
	}
	for i, a := range it.AddOns {
		if !a.valid() {
			return &InvalidItemError{Index: idx, Field: "addOns", Reason: fmt.Sprintf("unknown add-on %q", a)}
		}
		if slices.Contains(it.AddOns[:i], a) {
			return &InvalidItemError{Index: idx, Field: "addOns", Reason: fmt.Sprintf("duplicate add-on %q", a)}
		}
	}
	return nil
}

// Validate checks every line item and stops at the first failure. The
// subtotal must fit in Cents.
func (o Order) Validate() error {
	var subtotal Cents
	for i, it := range o.Items {
		if err := it.Validate(i); err != nil {
			return err
		}
		sum, ok := addCents(subtotal, it.UnitPriceCents)
		if !ok {
			return &InvalidItemError{Index: i, Field: "unitPriceCents", Reason: "order subtotal overflows"}
		}
		subtotal = sum
	}
	return nil
}

// addCents adds two non-negative amounts and reports false on overflow.
func addCents(a, b Cents) (Cents, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}

// Validate reports whether t is a known tier.
func (t Tier) Validate() error {
	switch t {
	case TierGuest, TierRegular, TierVIP:
		return nil
	}
	return errors.Wrapf(ErrUnknownTier, "tier %q", string(t))
}

// Validate reports whether z is a known zone.
func (z Zone) Validate() error {
	switch z {
	case ZoneLocal, ZoneOuter:
		return nil
	}
	return errors.Wrapf(ErrUnknownZone, "zone %q", string(z))
}

// Validate reports whether c is a known coupon or no coupon at all.
func (c Coupon) Validate() error {
	switch c {
	case CouponNone, CouponBOGO, CouponFirst10:
		return nil
	}
	return errors.Wrapf(ErrUnknownCoupon, "coupon %q", string(c))
}

// ParseCoupon normalizes a user-typed code. Surrounding whitespace and case
// are ignored; an empty string yields CouponNone.
func ParseCoupon(s string) (Coupon, error) {
	c := Coupon(strings.ToUpper(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}
