package codec

import (
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
	"github.com/xenking/pierogi-pricing/internal/domain/quote"
)

func TestDecodeRequest(t *testing.T) {
	input := `{
		"items": [
			{"kind":"hot","sku":"P12-POTATO","title":"Potato 12","filling":"potato","qty":12,"unitPriceCents":1000,"addOns":["sour-cream"]},
			{"kind":"frozen","sku":"P6-SAUER","title":"","filling":"sauerkraut","qty":6,"unitPriceCents":800,"addOns":[],"note":"ignored"}
		],
		"profile": {"tier":"vip","name":"ignored"},
		"couponCode": " first10 ",
		"zone": "outer",
		"channel": {"web": true}
	}`

	req, err := DecodeRequest(jx.DecodeStr(input))
	require.NoError(t, err)

	assert.Equal(t, quote.Request{
		Order: pricing.Order{Items: []pricing.Item{
			{
				Kind: pricing.KindHot, SKU: "P12-POTATO", Title: "Potato 12", Filling: pricing.FillingPotato,
				Qty: 12, UnitPriceCents: 1000, AddOns: []pricing.AddOn{pricing.AddOnSourCream},
			},
			{
				Kind: pricing.KindFrozen, SKU: "P6-SAUER", Filling: pricing.FillingSauerkraut,
				Qty: 6, UnitPriceCents: 800,
			},
		}},
		Profile: pricing.Profile{Tier: pricing.TierVIP},
		Coupon:  pricing.CouponFirst10,
		Zone:    pricing.ZoneOuter,
	}, req)
}

func TestDecodeRequest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		errText string
	}{
		{
			name:    "unknown coupon",
			input:   `{"items":[],"couponCode":"HALFOFF"}`,
			wantErr: pricing.ErrUnknownCoupon,
		},
		{
			name:    "fractional price",
			input:   `{"items":[{"unitPriceCents":10.5}]}`,
			errText: "item 0",
		},
		{
			name:    "string qty",
			input:   `{"items":[{"qty":"12"}]}`,
			errText: "qty",
		},
		{
			name:    "truncated body",
			input:   `{"items":[`,
			errText: "items",
		},
		{
			name:    "trailing garbage",
			input:   `{"items":[]}garbage`,
			errText: "unexpected data after request object",
		},
		{
			name:    "extra closing brace",
			input:   `{"items":[]}}`,
			errText: "unexpected data after request object",
		},
		{
			name:    "second object",
			input:   `{"items":[]} {"items":[]}`,
			errText: "unexpected data after request object",
		},
		{
			name:  "not an object",
			input: `[1,2,3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest(jx.DecodeStr(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestDecodeRequest_TrailingWhitespace(t *testing.T) {
	req, err := DecodeRequest(jx.DecodeStr("{\"items\":[],\"zone\":\"local\"} \r\n\t"))
	require.NoError(t, err)
	assert.Equal(t, pricing.ZoneLocal, req.Zone)
}

func TestDecodeRequest_NullCoupon(t *testing.T) {
	req, err := DecodeRequest(jx.DecodeStr(`{"items":[],"profile":{"tier":"guest"},"couponCode":null,"zone":"local"}`))
	require.NoError(t, err)
	assert.Equal(t, pricing.CouponNone, req.Coupon)
	assert.Empty(t, req.Order.Items)
}

func TestEncodeQuote(t *testing.T) {
	q := &quote.Quote{
		ID: "7d2c2a8e-0f43-4bb4-9a57-3b8c1f7a9e10",
		Request: quote.Request{
			Order: pricing.Order{Items: []pricing.Item{{
				Kind: pricing.KindHot, SKU: "P12-POTATO", Title: "Potato 12", Filling: pricing.FillingPotato,
				Qty: 12, UnitPriceCents: 1000,
			}}},
			Profile: pricing.Profile{Tier: pricing.TierGuest},
			Zone:    pricing.ZoneLocal,
		},
		Breakdown: pricing.Breakdown{
			Subtotal: 1000, DiscountedBase: 1000, Tax: 80, Delivery: 499, Total: 1579,
		},
		TaxPercent: decimal.NewFromInt(8),
		CreatedAt:  time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}

	var e jx.Encoder
	EncodeQuote(&e, q)

	assert.JSONEq(t, `{
		"id": "7d2c2a8e-0f43-4bb4-9a57-3b8c1f7a9e10",
		"items": [{"kind":"hot","sku":"P12-POTATO","title":"Potato 12","filling":"potato","qty":12,"unitPriceCents":1000,"addOns":[]}],
		"tier": "guest",
		"couponCode": null,
		"zone": "local",
		"subtotal": 1000,
		"couponDiscount": 0,
		"loyaltyDiscount": 0,
		"discounts": 0,
		"discountedBase": 1000,
		"taxPercent": "8",
		"tax": 80,
		"delivery": 499,
		"total": 1579,
		"createdAt": "2025-06-15T12:00:00Z"
	}`, string(e.Bytes()))
}

func TestItemsRoundTrip(t *testing.T) {
	items := []pricing.Item{
		{Kind: pricing.KindFrozen, SKU: "P24-POTATO", Title: "Big bag", Filling: pricing.FillingMushroom, Qty: 24,
			UnitPriceCents: 2999, AddOns: []pricing.AddOn{pricing.AddOnBaconBits, pricing.AddOnFriedOnion}},
	}

	var e jx.Encoder
	EncodeItems(&e, items)

	got, err := DecodeItems(jx.DecodeBytes(e.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestEncodeRates(t *testing.T) {
	var e jx.Encoder
	EncodeRates(&e, pricing.DefaultRates())

	assert.JSONEq(t, `{
		"first10Percent": "10",
		"vipLoyaltyPercent": "5",
		"frozenSurchargeCents": 150,
		"zones": {
			"local": {"taxPercent": "8", "deliveryFeeCents": 499},
			"outer": {"taxPercent": "6.5", "deliveryFeeCents": 899}
		}
	}`, string(e.Bytes()))
}
