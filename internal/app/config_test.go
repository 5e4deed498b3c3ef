package app

import (
	"os"
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
)

func testLoaderConfig() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "PIEROGI",
		SkipFiles: true,
		SkipFlags: true,
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		wantDB string
		want   string
	}{
		{
			name: "defaults",
			want: defaultAddr,
		},
		{
			name: "platform port",
			env:  map[string]string{"PORT": "9000"},
			want: "0.0.0.0:9000",
		},
		{
			name: "explicit addr wins over port",
			env:  map[string]string{"PORT": "9000", "PIEROGI_ADDR": "127.0.0.1:7000"},
			want: "127.0.0.1:7000",
		},
		{
			name:   "platform database url",
			env:    map[string]string{"DATABASE_URL": "postgres://platform/db"},
			want:   defaultAddr,
			wantDB: "postgres://platform/db",
		},
		{
			name: "prefixed database url wins",
			env: map[string]string{
				"DATABASE_URL":         "postgres://platform/db",
				"PIEROGI_DATABASE_URL": "postgres://pierogi/db",
			},
			want:   defaultAddr,
			wantDB: "postgres://pierogi/db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"PORT", "DATABASE_URL", "PIEROGI_ADDR", "PIEROGI_DATABASE_URL"} {
				t.Setenv(k, "")
				require.NoError(t, os.Unsetenv(k))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := loadConfig(testLoaderConfig())
			require.NoError(t, err)

			assert.Equal(t, tt.want, cfg.Addr)
			assert.Equal(t, tt.wantDB, cfg.DatabaseURL)
			assert.Equal(t, RateLimitConfig{Max: 100, Window: time.Minute}, cfg.RateLimit)
			assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
			assert.False(t, cfg.CORS.AllowCredentials)

			rates, err := cfg.Pricing.Rates()
			require.NoError(t, err)
			assertRatesEqual(t, pricing.DefaultRates(), rates)
		})
	}
}

func TestPricingConfig_Rates(t *testing.T) {
	base := PricingConfig{
		First10Percent:    "12.5",
		VIPLoyaltyPercent: "7",
		LocalTaxPercent:   "8.25",
		OuterTaxPercent:   "0",
		LocalDeliveryFee:  300,
		OuterDeliveryFee:  700,
		FrozenSurcharge:   0,
	}

	t.Run("valid", func(t *testing.T) {
		rates, err := base.Rates()
		require.NoError(t, err)
		assertRatesEqual(t, pricing.Rates{
			First10Percent:    decimal.RequireFromString("12.5"),
			VIPLoyaltyPercent: decimal.NewFromInt(7),
			TaxPercent: map[pricing.Zone]decimal.Decimal{
				pricing.ZoneLocal: decimal.RequireFromString("8.25"),
				pricing.ZoneOuter: decimal.Zero,
			},
			DeliveryBase: map[pricing.Zone]pricing.Cents{
				pricing.ZoneLocal: 300,
				pricing.ZoneOuter: 700,
			},
		}, rates)
	})

	tests := []struct {
		name    string
		mutate  func(c *PricingConfig)
		wantErr string
	}{
		{
			name:    "not a number",
			mutate:  func(c *PricingConfig) { c.LocalTaxPercent = "eight" },
			wantErr: `parse local tax percent "eight"`,
		},
		{
			name:    "percent above 100",
			mutate:  func(c *PricingConfig) { c.First10Percent = "101" },
			wantErr: "first10 percent",
		},
		{
			name:    "negative fee",
			mutate:  func(c *PricingConfig) { c.OuterDeliveryFee = -1 },
			wantErr: "delivery fee",
		},
		{
			name:    "negative surcharge",
			mutate:  func(c *PricingConfig) { c.FrozenSurcharge = -150 },
			wantErr: "frozen surcharge",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)

			_, err := c.Rates()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func assertRatesEqual(t *testing.T, want, got pricing.Rates) {
	t.Helper()
	assert.True(t, want.First10Percent.Equal(got.First10Percent), "first10 %s", got.First10Percent)
	assert.True(t, want.VIPLoyaltyPercent.Equal(got.VIPLoyaltyPercent), "vip %s", got.VIPLoyaltyPercent)
	for _, z := range pricing.Zones {
		assert.True(t, want.TaxPercent[z].Equal(got.TaxPercent[z]), "tax %s: %s", z, got.TaxPercent[z])
		assert.Equal(t, want.DeliveryBase[z], got.DeliveryBase[z], "delivery %s", z)
	}
	assert.Equal(t, want.FrozenSurcharge, got.FrozenSurcharge)
}

func TestConfig_ValidateRateLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit RateLimitConfig
	}{
		{name: "zero max", limit: RateLimitConfig{Max: 0, Window: time.Minute}},
		{name: "negative window", limit: RateLimitConfig{Max: 10, Window: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(testLoaderConfig())
			require.NoError(t, err)

			cfg.RateLimit = tt.limit
			err = cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "rate limit must be positive")
		})
	}
}
