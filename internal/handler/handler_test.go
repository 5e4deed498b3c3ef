package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
	"github.com/xenking/pierogi-pricing/internal/domain/quote"
	"github.com/xenking/pierogi-pricing/internal/storage/memory"
)

const bogoOrder = `{
	"items": [
		{"kind":"hot","sku":"P12-POTATO","title":"Potato 12","filling":"potato","qty":12,"unitPriceCents":1500,"addOns":["sour-cream"]},
		{"kind":"hot","sku":"P12-POTATO-B","title":"Potato 12","filling":"potato","qty":12,"unitPriceCents":1000,"addOns":[]}
	],
	"profile": {"tier":"guest"},
	"couponCode": "pierogi-bogo",
	"zone": "local"
}`

type quoteBody struct {
	ID             string `json:"id"`
	CouponCode     string `json:"couponCode"`
	Subtotal       int64  `json:"subtotal"`
	Discounts      int64  `json:"discounts"`
	CouponDiscount int64  `json:"couponDiscount"`
	TaxPercent     string `json:"taxPercent"`
	Tax            int64  `json:"tax"`
	Delivery       int64  `json:"delivery"`
	Total          int64  `json:"total"`
}

func newTestServer(t *testing.T, mp *sdkmetric.MeterProvider) *httptest.Server {
	t.Helper()

	calc, err := pricing.NewCalculator(pricing.DefaultRates())
	require.NoError(t, err)
	svc := quote.NewService(calc, memory.NewQuoteRepository(), tracenoop.NewTracerProvider())

	var h *Handler
	if mp != nil {
		h, err = NewHandler(svc, calc.Rates(), mp)
	} else {
		h, err = NewHandler(svc, calc.Rates(), metricnoop.NewMeterProvider())
	}
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/quotes", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCreateQuote(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv, bogoOrder)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got quoteBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "/api/quotes/"+got.ID, resp.Header.Get("Location"))
	assert.Equal(t, "PIEROGI-BOGO", got.CouponCode)
	assert.Equal(t, int64(2500), got.Subtotal)
	assert.Equal(t, int64(1000), got.Discounts)
	assert.Equal(t, int64(1000), got.CouponDiscount)
	assert.Equal(t, "8", got.TaxPercent)
	assert.Equal(t, int64(120), got.Tax)
	assert.Equal(t, int64(499), got.Delivery)
	assert.Equal(t, int64(2119), got.Total)
}

func TestCreateQuote_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "malformed json",
			body:     `{"items":[`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "trailing data",
			body:     `{"items":[],"profile":{"tier":"guest"},"zone":"local"}garbage`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "unexpected data after request object",
		},
		{
			name:     "wrong value type",
			body:     `{"items":[{"qty":"twelve"}],"zone":"local"}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "qty",
		},
		{
			name:     "unknown coupon",
			body:     `{"items":[],"profile":{"tier":"guest"},"couponCode":"FREEBIE","zone":"local"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "unknown coupon code",
		},
		{
			name:     "unknown zone",
			body:     `{"items":[],"profile":{"tier":"guest"},"zone":"mars"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "unknown delivery zone",
		},
		{
			name:     "unknown tier",
			body:     `{"items":[],"profile":{"tier":"gold"},"zone":"local"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "unknown loyalty tier",
		},
		{
			name: "bad pack size",
			body: `{"items":[{"kind":"hot","filling":"potato","qty":7,"unitPriceCents":100}],
				"profile":{"tier":"guest"},"zone":"local"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "item 0: qty",
		},
		{
			name: "subtotal overflow",
			body: `{"items":[
				{"kind":"frozen","filling":"potato","qty":6,"unitPriceCents":9223372036854775807},
				{"kind":"frozen","filling":"mushroom","qty":6,"unitPriceCents":1}],
				"profile":{"tier":"vip"},"couponCode":"FIRST10","zone":"local"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "order subtotal overflows",
		},
		{
			name: "negative price",
			body: `{"items":[{"kind":"frozen","filling":"mushroom","qty":24,"unitPriceCents":-1}],
				"profile":{"tier":"vip"},"zone":"outer"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "unitPriceCents",
		},
	}

	srv := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, tt.body)
			require.Equal(t, tt.wantCode, resp.StatusCode)

			var body struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Contains(t, body.Message, tt.wantMsg)
		})
	}
}

func TestGetQuote(t *testing.T) {
	srv := newTestServer(t, nil)

	var created quoteBody
	resp := post(t, srv, bogoOrder)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	tests := []struct {
		name     string
		id       string
		wantCode int
	}{
		{name: "stored quote", id: created.ID, wantCode: http.StatusOK},
		{name: "unknown id", id: "6f1c2b8e-8a53-4f35-9a55-3f2f1b7a0c11", wantCode: http.StatusNotFound},
		{name: "malformed id", id: "not-a-uuid", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/quotes/" + tt.id)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantCode != http.StatusOK {
				return
			}
			var got quoteBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, created, got)
		})
	}
}

func TestGetRates(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/rates")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf strings.Builder
	_, err = io.Copy(&buf, resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"first10Percent": "10",
		"vipLoyaltyPercent": "5",
		"frozenSurchargeCents": 150,
		"zones": {
			"local": {"taxPercent": "8", "deliveryFeeCents": 499},
			"outer": {"taxPercent": "6.5", "deliveryFeeCents": 899}
		}
	}`, buf.String())
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/quotes")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCreateQuote_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	srv := newTestServer(t, mp)

	require.Equal(t, http.StatusCreated, post(t, srv, bogoOrder).StatusCode)
	require.Equal(t, http.StatusUnprocessableEntity,
		post(t, srv, `{"items":[],"profile":{"tier":"guest"},"zone":"mars"}`).StatusCode)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				assert.Equal(t, int64(2), total, m.Name)
			case metricdata.Histogram[int64]:
				require.Len(t, data.DataPoints, 1)
				assert.Equal(t, uint64(1), data.DataPoints[0].Count)
				assert.Equal(t, int64(2119), data.DataPoints[0].Sum)
			}
		}
	}
	assert.True(t, found["pricing.quotes"])
	assert.True(t, found["pricing.quote.total_cents"])
}
