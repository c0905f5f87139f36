package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Upstream   UpstreamConfig
	Enrichment EnrichmentConfig
	Cache      CacheConfig
	Redis      RedisConfig
	Telemetry  TelemetryConfig
	Metrics    MetricsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// UpstreamConfig holds the ERP OData connection settings
type UpstreamConfig struct {
	Username string
	Password string
	// Timeout bounds each remote call
	Timeout time.Duration `validate:"gt=0"`
	// RequestDeadline bounds one whole aggregation
	RequestDeadline time.Duration `validate:"gt=0"`
	// MaxConcurrency is the worker count for per-item enrichment; 1 runs sequentially
	MaxConcurrency int     `validate:"min=1,max=64"`
	RateLimitQPS   float64 `validate:"gte=0"`
	RateBurst      int     `validate:"gte=0"`
	Endpoints      EndpointsConfig
}

// EndpointsConfig holds the entity-set URL of each OData source
type EndpointsConfig struct {
	BillingDocument     string `validate:"omitempty,url"`
	BillingDocumentItem string `validate:"omitempty,url"`
	SalesOrder          string `validate:"omitempty,url"`
	DeliveryItem        string `validate:"omitempty,url"`
	DeliveryHeader      string `validate:"omitempty,url"`
	Plant               string `validate:"omitempty,url"`
	TaxDetail           string `validate:"omitempty,url"`
	BusinessPartner     string `validate:"omitempty,url"`
	PaymentTerms        string `validate:"omitempty,url"`
	ProductPlant        string `validate:"omitempty,url"`
}

// EnrichmentConfig holds aggregation options
type EnrichmentConfig struct {
	PricingElements      bool
	PaymentTermsLanguage string // ERP language key, e.g. "EN"
	PartnerTaxType       string // BP tax type carrying the GSTIN
	ListPageSize         int
}

// CacheConfig holds product-plant cache settings
type CacheConfig struct {
	Backend               string // memory, redis, tiered
	AllowInMemoryFallback bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // zero keeps entries forever
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// MetricsConfig holds Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// legacyEnv lists the environment names used by earlier deployments of the service.
// They are consulted after the INVOICE_ prefixed names.
var legacyEnv = map[string]string{
	"upstream.username":                       "ABAP_USER",
	"upstream.password":                       "ABAP_PASS",
	"upstream.endpoints.billing_document":      "ABAP_API_URL",
	"upstream.endpoints.billing_document_item": "ABAP_ITEM_API_URL",
	"upstream.endpoints.sales_order":           "SO_API_URL",
	"upstream.endpoints.delivery_item":         "DELIVERY_ITEM_API_URL",
	"upstream.endpoints.delivery_header":       "DELIVERY_HEADER_API_URL",
	"upstream.endpoints.plant":                 "ZI_PLANT1_API_URL",
	"upstream.endpoints.tax_detail":            "ZCE_TAX_DETAILS_API_URL",
	"upstream.endpoints.business_partner":      "BUSINESS_PARTNER_API_URL",
	"upstream.endpoints.payment_terms":         "INCOTERM_API_URL",
	"upstream.endpoints.product_plant":         "PRODUCT_PLANT_API_URL",
}

const envPrefix = "INVOICE"

// Load loads configuration from a .env file, TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with INVOICE_ prefix (e.g., INVOICE_UPSTREAM_PASSWORD)
// 2. Legacy environment variables (e.g., ABAP_PASS), including those from .env
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("enrichment.pricing_elements", true)
	v.SetDefault("cache.allow_in_memory_fallback", true)
	v.SetDefault("metrics.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Upstream: UpstreamConfig{
			Username:        v.GetString("upstream.username"),
			Password:        v.GetString("upstream.password"),
			Timeout:         v.GetDuration("upstream.timeout"),
			RequestDeadline: v.GetDuration("upstream.request_deadline"),
			MaxConcurrency:  v.GetInt("upstream.max_concurrency"),
			RateLimitQPS:    v.GetFloat64("upstream.rate_limit_qps"),
			RateBurst:       v.GetInt("upstream.rate_burst"),
			Endpoints: EndpointsConfig{
				BillingDocument:     v.GetString("upstream.endpoints.billing_document"),
				BillingDocumentItem: v.GetString("upstream.endpoints.billing_document_item"),
				SalesOrder:          v.GetString("upstream.endpoints.sales_order"),
				DeliveryItem:        v.GetString("upstream.endpoints.delivery_item"),
				DeliveryHeader:      v.GetString("upstream.endpoints.delivery_header"),
				Plant:               v.GetString("upstream.endpoints.plant"),
				TaxDetail:           v.GetString("upstream.endpoints.tax_detail"),
				BusinessPartner:     v.GetString("upstream.endpoints.business_partner"),
				PaymentTerms:        v.GetString("upstream.endpoints.payment_terms"),
				ProductPlant:        v.GetString("upstream.endpoints.product_plant"),
			},
		},
		Enrichment: EnrichmentConfig{
			PricingElements:      v.GetBool("enrichment.pricing_elements"),
			PaymentTermsLanguage: v.GetString("enrichment.payment_terms_language"),
			PartnerTaxType:       v.GetString("enrichment.partner_tax_type"),
			ListPageSize:         v.GetInt("enrichment.list_page_size"),
		},
		Cache: CacheConfig{
			Backend:               v.GetString("cache.backend"),
			AllowInMemoryFallback: v.GetBool("cache.allow_in_memory_fallback"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
			TTL:       v.GetDuration("redis.ttl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv loads variables from path when it exists. Existing variables win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	return nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "invoice-service"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "4004"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 30 * time.Second
	}
	if cfg.Upstream.RequestDeadline == 0 {
		cfg.Upstream.RequestDeadline = 60 * time.Second
	}
	if cfg.Upstream.MaxConcurrency == 0 {
		cfg.Upstream.MaxConcurrency = 4
	}
	if cfg.Upstream.RateLimitQPS > 0 && cfg.Upstream.RateBurst == 0 {
		cfg.Upstream.RateBurst = 1
	}
	if cfg.Enrichment.PaymentTermsLanguage == "" {
		cfg.Enrichment.PaymentTermsLanguage = "EN"
	}
	if cfg.Enrichment.PartnerTaxType == "" {
		cfg.Enrichment.PartnerTaxType = "IN3"
	}
	if cfg.Enrichment.ListPageSize == 0 {
		cfg.Enrichment.ListPageSize = 100
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "invoice:product-plant:"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "invoice-service"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c.Upstream); err != nil {
		return fmt.Errorf("invalid upstream configuration: %w", err)
	}

	tag, err := language.Parse(c.Enrichment.PaymentTermsLanguage)
	if err != nil {
		return fmt.Errorf("enrichment.payment_terms_language %q is not a language: %w", c.Enrichment.PaymentTermsLanguage, err)
	}
	base, _ := tag.Base()
	c.Enrichment.PaymentTermsLanguage = strings.ToUpper(base.String())

	switch c.Cache.Backend {
	case "memory", "redis", "tiered":
	default:
		return fmt.Errorf("cache.backend must be memory, redis or tiered, got %q", c.Cache.Backend)
	}

	if c.Enrichment.ListPageSize < 0 {
		return fmt.Errorf("enrichment.list_page_size cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Upstream.Endpoints.BillingDocument == "" {
			return fmt.Errorf("upstream.endpoints.billing_document is required in production")
		}
		if c.Upstream.Password == "" {
			return fmt.Errorf("upstream.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}
