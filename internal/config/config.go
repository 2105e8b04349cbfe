package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/dashboard-data-aggregation/internal/query"
	"github.com/i474232898/dashboard-data-aggregation/internal/store"
)

// CacheConfig is the freshness and retention of one resource namespace.
type CacheConfig struct {
	FreshFor      time.Duration `env:"FRESH_FOR" envDefault:"5m"`
	KeepUnusedFor time.Duration `env:"KEEP_UNUSED_FOR" envDefault:"60s"`
}

// Options returns the cache options for this namespace.
func (c CacheConfig) Options() query.Options {
	return query.Options{FreshFor: c.FreshFor, KeepUnusedFor: c.KeepUnusedFor}
}

type AppConfig struct {
	Port string `env:"PORT" envDefault:"8080" validate:"required,numeric"`

	// Upstream HTTP behaviour.
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	UpstreamMaxRetries int           `env:"UPSTREAM_MAX_RETRIES" envDefault:"0" validate:"gte=0,lte=10"`

	Weather CacheConfig `envPrefix:"WEATHER_"`
	Finance CacheConfig `envPrefix:"FINANCE_"`
	News    CacheConfig `envPrefix:"NEWS_"`

	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"500ms" validate:"gte=0"`
	WidgetWait     time.Duration `env:"WIDGET_WAIT" envDefault:"5s" validate:"gt=0"`

	// SweepInterval controls how often unused cache entries are evicted.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"30s" validate:"gte=1s"`
	// RefreshInterval re-fetches mounted widgets periodically; 0 disables it.
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"0s" validate:"gte=0"`

	// Initial dashboard selections.
	DefaultLocation       string   `env:"DEFAULT_LOCATION" envDefault:"New York"`
	DefaultStocks         []string `env:"DEFAULT_STOCKS" envDefault:"AAPL,MSFT,GOOGL,AMZN,TSLA" envSeparator:","`
	DefaultNewsCategories []string `env:"DEFAULT_NEWS_CATEGORIES" envDefault:"business,technology" envSeparator:","`

	OpenWeatherURL  string `env:"OPENWEATHER_BASE_URL" envDefault:"https://api.openweathermap.org/data/2.5" validate:"required,url"`
	AlphaVantageURL string `env:"ALPHAVANTAGE_BASE_URL" envDefault:"https://www.alphavantage.co/query" validate:"required,url"`
	NewsAPIURL      string `env:"NEWSAPI_BASE_URL" envDefault:"https://newsapi.org/v2" validate:"required,url"`

	OpenWeatherAPIKey  string `env:"OPENWEATHER_API_KEY"`
	AlphaVantageAPIKey string `env:"ALPHAVANTAGE_API_KEY"`
	NewsAPIKey         string `env:"NEWSAPI_API_KEY"`
}

var validate = validator.New()

// Load reads configuration from a .env file, if any, and the environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	return parse(env.Options{})
}

// LoadFrom reads configuration from environ only. It ignores the process
// environment and any .env file.
func LoadFrom(environ map[string]string) (*AppConfig, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.DefaultStocks = trimAll(cfg.DefaultStocks)
	cfg.DefaultNewsCategories = trimAll(cfg.DefaultNewsCategories)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	for name, key := range map[string]string{
		"OPENWEATHER_API_KEY":  cfg.OpenWeatherAPIKey,
		"ALPHAVANTAGE_API_KEY": cfg.AlphaVantageAPIKey,
		"NEWSAPI_API_KEY":      cfg.NewsAPIKey,
	} {
		if key == "" {
			log.Printf("INFO: %s is not set; widgets using it will report a configuration error", name)
		}
	}
	return cfg, nil
}

// InitialState builds the shared store's starting state from the defaults.
func (c *AppConfig) InitialState() store.State {
	st := store.DefaultState()
	st.SelectedLocation = c.DefaultLocation
	if len(c.DefaultStocks) > 0 {
		st.SelectedStocks = c.DefaultStocks
	}
	if len(c.DefaultNewsCategories) > 0 {
		st.SelectedNewsCategories = c.DefaultNewsCategories
	}
	return st
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
