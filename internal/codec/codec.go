// Package codec converts quote requests and quotes to and from JSON.
//
// Field names follow the storefront's order payloads (camelCase, prices in
// cents). Enum values are copied as-is and checked by the pricing package,
// so decoding only fails on malformed JSON or wrong value types.
package codec

import (
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
	"github.com/xenking/pierogi-pricing/internal/domain/quote"
)

// DecodeRequest reads a quote request object:
//
//	{"items":[...],"profile":{"tier":"vip"},"couponCode":"FIRST10","zone":"local"}
//
// couponCode may be absent or null. A coupon outside the known set is
// reported as pricing.ErrUnknownCoupon. Nothing but whitespace may follow
// the object.
func DecodeRequest(d *jx.Decoder) (quote.Request, error) {
	var req quote.Request
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			items, err := DecodeItems(d)
			if err != nil {
				return err
			}
			req.Order.Items = items
		case "profile":
			profile, err := decodeProfile(d)
			if err != nil {
				return errors.Wrap(err, "profile")
			}
			req.Profile = profile
		case "couponCode":
			code, err := optString(d)
			if err != nil {
				return errors.Wrap(err, "couponCode")
			}
			c, err := pricing.ParseCoupon(code)
			if err != nil {
				return err
			}
			req.Coupon = c
		case "zone":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "zone")
			}
			req.Zone = pricing.Zone(s)
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return quote.Request{}, err
	}
	if err := expectEnd(d); err != nil {
		return quote.Request{}, err
	}
	return req, nil
}

// expectEnd fails unless only whitespace is left in d. Next reports Invalid
// both at the end of input and on a byte no JSON value starts with, so Skip
// tells the two apart.
func expectEnd(d *jx.Decoder) error {
	errTrailing := errors.New("unexpected data after request object")
	if d.Next() != jx.Invalid {
		return errTrailing
	}
	if err := d.Skip(); errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	return errTrailing
}

func decodeProfile(d *jx.Decoder) (pricing.Profile, error) {
	var p pricing.Profile
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "tier" {
			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return errors.Wrap(err, "tier")
		}
		p.Tier = pricing.Tier(s)
		return nil
	})
	return p, err
}

// DecodeItems reads an array of line items.
func DecodeItems(d *jx.Decoder) ([]pricing.Item, error) {
	items := []pricing.Item{}
	err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return errors.Wrapf(err, "item %d", len(items))
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "items")
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (pricing.Item, error) {
	var it pricing.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "kind":
			var s string
			s, err = d.Str()
			it.Kind = pricing.Kind(s)
		case "sku":
			it.SKU, err = d.Str()
		case "title":
			it.Title, err = d.Str()
		case "filling":
			var s string
			s, err = d.Str()
			it.Filling = pricing.Filling(s)
		case "qty":
			it.Qty, err = d.Int()
		case "unitPriceCents":
			it.UnitPriceCents, err = d.Int64()
		case "addOns":
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				it.AddOns = append(it.AddOns, pricing.AddOn(s))
				return nil
			})
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return it, err
}

func optString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// EncodeItems writes line items as a JSON array.
func EncodeItems(e *jx.Encoder, items []pricing.Item) {
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("kind", func(e *jx.Encoder) { e.Str(string(it.Kind)) })
				e.Field("sku", func(e *jx.Encoder) { e.Str(it.SKU) })
				e.Field("title", func(e *jx.Encoder) { e.Str(it.Title) })
				e.Field("filling", func(e *jx.Encoder) { e.Str(string(it.Filling)) })
				e.Field("qty", func(e *jx.Encoder) { e.Int(it.Qty) })
				e.Field("unitPriceCents", func(e *jx.Encoder) { e.Int64(it.UnitPriceCents) })
				e.Field("addOns", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, a := range it.AddOns {
							e.Str(string(a))
						}
					})
				})
			})
		}
	})
}

// EncodeQuote writes the receipt view of q.
func EncodeQuote(e *jx.Encoder, q *quote.Quote) {
	b := q.Breakdown
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(q.ID) })
		e.Field("items", func(e *jx.Encoder) { EncodeItems(e, q.Request.Order.Items) })
		e.Field("tier", func(e *jx.Encoder) { e.Str(string(q.Request.Profile.Tier)) })
		e.Field("couponCode", func(e *jx.Encoder) {
			if q.Request.Coupon == pricing.CouponNone {
				e.Null()
				return
			}
			e.Str(string(q.Request.Coupon))
		})
		e.Field("zone", func(e *jx.Encoder) { e.Str(string(q.Request.Zone)) })
		e.Field("subtotal", func(e *jx.Encoder) { e.Int64(b.Subtotal) })
		e.Field("couponDiscount", func(e *jx.Encoder) { e.Int64(b.CouponDiscount) })
		e.Field("loyaltyDiscount", func(e *jx.Encoder) { e.Int64(b.LoyaltyDiscount) })
		e.Field("discounts", func(e *jx.Encoder) { e.Int64(b.Discount) })
		e.Field("discountedBase", func(e *jx.Encoder) { e.Int64(b.DiscountedBase) })
		e.Field("taxPercent", func(e *jx.Encoder) { e.Str(q.TaxPercent.String()) })
		e.Field("tax", func(e *jx.Encoder) { e.Int64(b.Tax) })
		e.Field("delivery", func(e *jx.Encoder) { e.Int64(b.Delivery) })
		e.Field("total", func(e *jx.Encoder) { e.Int64(b.Total) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(q.CreatedAt.Format(time.RFC3339Nano)) })
	})
}

// EncodeRates writes the active pricing coefficients. Percentages are
// strings to keep them exact.
func EncodeRates(e *jx.Encoder, r pricing.Rates) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("first10Percent", func(e *jx.Encoder) { e.Str(r.First10Percent.String()) })
		e.Field("vipLoyaltyPercent", func(e *jx.Encoder) { e.Str(r.VIPLoyaltyPercent.String()) })
		e.Field("frozenSurchargeCents", func(e *jx.Encoder) { e.Int64(r.FrozenSurcharge) })
		e.Field("zones", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, z := range pricing.Zones {
					e.Field(string(z), func(e *jx.Encoder) {
						e.Obj(func(e *jx.Encoder) {
							e.Field("taxPercent", func(e *jx.Encoder) { e.Str(r.TaxPercent[z].String()) })
							e.Field("deliveryFeeCents", func(e *jx.Encoder) { e.Int64(r.DeliveryBase[z]) })
						})
					})
				}
			})
		})
	})
}

// EncodeError writes the API error body.
func EncodeError(e *jx.Encoder, code int, msg string) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
}
