package config

import (
	"slices"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" || cfg.HTTPTimeout != 10*time.Second || cfg.UpstreamMaxRetries != 0 {
		t.Errorf("server defaults = %+v", cfg)
	}
	if cfg.Weather.FreshFor != 5*time.Minute || cfg.News.KeepUnusedFor != 60*time.Second {
		t.Errorf("cache defaults = %+v %+v", cfg.Weather, cfg.News)
	}
	if cfg.SearchDebounce != 500*time.Millisecond || cfg.SweepInterval != 30*time.Second || cfg.RefreshInterval != 0 {
		t.Errorf("timing defaults = %v %v %v", cfg.SearchDebounce, cfg.SweepInterval, cfg.RefreshInterval)
	}

	st := cfg.InitialState()
	if st.SelectedLocation != "New York" || !slices.Equal(st.SelectedStocks, []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"}) {
		t.Errorf("initial state = %+v", st)
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"PORT":                    "9090",
		"FINANCE_FRESH_FOR":       "1m",
		"DEFAULT_LOCATION":        "London",
		"DEFAULT_STOCKS":          "NVDA, AMD ,",
		"DEFAULT_NEWS_CATEGORIES": "sports",
		"REFRESH_INTERVAL":        "2m",
		"OPENWEATHER_API_KEY":     "k",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" || cfg.Finance.FreshFor != time.Minute || cfg.Weather.FreshFor != 5*time.Minute {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RefreshInterval != 2*time.Minute || cfg.OpenWeatherAPIKey != "k" {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	st := cfg.InitialState()
	if st.SelectedLocation != "London" || !slices.Equal(st.SelectedStocks, []string{"NVDA", "AMD"}) {
		t.Errorf("initial state = %+v", st)
	}
	if !slices.Equal(st.SelectedNewsCategories, []string{"sports"}) {
		t.Errorf("categories = %v", st.SelectedNewsCategories)
	}
	if opts := cfg.Finance.Options(); opts.FreshFor != time.Minute {
		t.Errorf("cache options = %+v", opts)
	}
}

func TestInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"non-numeric port":   {"PORT": "http"},
		"bad duration":       {"HTTP_TIMEOUT": "soon"},
		"negative retries":   {"UPSTREAM_MAX_RETRIES": "-1"},
		"zero sweep":         {"SWEEP_INTERVAL": "0s"},
		"malformed base url": {"NEWSAPI_BASE_URL": "not a url"},
	}
	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFrom(environ); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
