package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pierogi-pricing/internal/domain/pricing"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (PIEROGI_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL; quotes are kept in memory when empty" flag:"database-url"`
	Pricing     PricingConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter on
// /api routes.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers for browser
// storefronts.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// PricingConfig exposes every pricing coefficient. Percentages are decimal
// strings so fractional rates stay exact.
type PricingConfig struct {
	First10Percent    string `default:"10"  usage:"FIRST10 coupon percentage" flag:"first10-percent"`
	VIPLoyaltyPercent string `default:"5"   usage:"VIP loyalty discount percentage" flag:"vip-loyalty-percent"`
	LocalTaxPercent   string `default:"8"   usage:"Tax percentage for the local zone" flag:"local-tax-percent"`
	OuterTaxPercent   string `default:"6.5" usage:"Tax percentage for the outer zone" flag:"outer-tax-percent"`
	LocalDeliveryFee  int64  `default:"499" usage:"Local delivery fee in cents" flag:"local-delivery-fee"`
	OuterDeliveryFee  int64  `default:"899" usage:"Outer delivery fee in cents" flag:"outer-delivery-fee"`
	FrozenSurcharge   int64  `default:"150" usage:"Delivery surcharge per frozen line in cents" flag:"frozen-surcharge"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Rates converts the section into validated pricing rates.
func (c PricingConfig) Rates() (pricing.Rates, error) {
	percents := []struct {
		name string
		raw  string
	}{
		{name: "first10 percent", raw: c.First10Percent},
		{name: "vip loyalty percent", raw: c.VIPLoyaltyPercent},
		{name: "local tax percent", raw: c.LocalTaxPercent},
		{name: "outer tax percent", raw: c.OuterTaxPercent},
	}
	parsed := make([]decimal.Decimal, len(percents))
	for i, p := range percents {
		v, err := decimal.NewFromString(p.raw)
		if err != nil {
			return pricing.Rates{}, errors.Wrapf(err, "parse %s %q", p.name, p.raw)
		}
		parsed[i] = v
	}

	r := pricing.Rates{
		First10Percent:    parsed[0],
		VIPLoyaltyPercent: parsed[1],
		TaxPercent: map[pricing.Zone]decimal.Decimal{
			pricing.ZoneLocal: parsed[2],
			pricing.ZoneOuter: parsed[3],
		},
		DeliveryBase: map[pricing.Zone]pricing.Cents{
			pricing.ZoneLocal: c.LocalDeliveryFee,
			pricing.ZoneOuter: c.OuterDeliveryFee,
		},
		FrozenSurcharge: c.FrozenSurcharge,
	}
	if err := r.Validate(); err != nil {
		return pricing.Rates{}, errors.Wrap(err, "pricing rates")
	}
	return r, nil
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "PIEROGI",
		Files:     []string{"config.yaml", "/etc/pierogi/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Pricing.Rates(); err != nil {
		return err
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.Errorf("rate limit must be positive, got %d per %s", c.RateLimit.Max, c.RateLimit.Window)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided DATABASE_URL and PORT onto
// the PIEROGI_-prefixed settings when those are unset.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
