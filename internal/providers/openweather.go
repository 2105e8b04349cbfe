package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/dashboard-data-aggregation/internal/apierr"
	"github.com/i474232898/dashboard-data-aggregation/internal/weather"
)

// DefaultOpenWeatherURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap.
// Temperatures are requested in the default unit, Kelvin.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	s := applyOptions(DefaultOpenWeatherURL, opts)

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: s.baseURL,
		httpCfg: newHTTPConfig(client, s.maxRetries),
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmConditions struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

func (c owmConditions) normalize() weather.Conditions {
	out := weather.Conditions{
		Temperature: c.Main.Temp,
		FeelsLike:   c.Main.FeelsLike,
		TempMin:     c.Main.TempMin,
		TempMax:     c.Main.TempMax,
		Pressure:    c.Main.Pressure,
		Humidity:    c.Main.Humidity,
		WindSpeed:   c.Wind.Speed,
		WindDeg:     c.Wind.Deg,
	}
	if len(c.Weather) > 0 {
		out.Main = c.Weather[0].Main
		out.Description = c.Weather[0].Description
		out.IconCode = c.Weather[0].Icon
	}
	return out
}

func (p *OpenWeatherProvider) Current(ctx context.Context, q weather.Query) (weather.Current, error) {
	body, err := p.get(ctx, "weather", q)
	if err != nil {
		return weather.Current{}, err
	}

	var payload struct {
		owmConditions
		Dt   int64  `json:"dt"`
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
			Sunrise int64  `json:"sunrise"`
			Sunset  int64  `json:"sunset"`
		} `json:"sys"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Current{}, apierr.UpstreamWrap(p.name, 0, fmt.Errorf("decode current weather: %w", err))
	}

	return weather.Current{
		Place:      weather.Place{Name: payload.Name, Country: payload.Sys.Country},
		Timestamp:  unixUTC(payload.Dt),
		Sunrise:    unixUTC(payload.Sys.Sunrise),
		Sunset:     unixUTC(payload.Sys.Sunset),
		Conditions: payload.normalize(),
	}, nil
}

func (p *OpenWeatherProvider) Forecast(ctx context.Context, q weather.Query) (weather.Forecast, error) {
	body, err := p.get(ctx, "forecast", q)
	if err != nil {
		return weather.Forecast{}, err
	}

	var payload struct {
		List []struct {
			owmConditions
			Dt    int64  `json:"dt"`
			DtTxt string `json:"dt_txt"`
		} `json:"list"`
		City struct {
			Name    string `json:"name"`
			Country string `json:"country"`
		} `json:"city"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Forecast{}, apierr.UpstreamWrap(p.name, 0, fmt.Errorf("decode forecast: %w", err))
	}

	fc := weather.Forecast{
		City:    weather.Place{Name: payload.City.Name, Country: payload.City.Country},
		Samples: make([]weather.Sample, 0, len(payload.List)),
	}
	for _, item := range payload.List {
		fc.Samples = append(fc.Samples, weather.Sample{
			Timestamp:  unixUTC(item.Dt),
			DtTxt:      item.DtTxt,
			Conditions: item.normalize(),
		})
	}
	return fc, nil
}

func (p *OpenWeatherProvider) get(ctx context.Context, endpoint string, q weather.Query) ([]byte, error) {
	if err := requireKey(p.name, p.apiKey); err != nil {
		return nil, err
	}
	if q.IsZero() {
		return nil, apierr.Configuration(p.name, "no location given")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		if q.HasCoordinates() {
			values.Set("lat", strconv.FormatFloat(*q.Lat, 'f', -1, 64))
			values.Set("lon", strconv.FormatFloat(*q.Lon, 'f', -1, 64))
		} else {
			values.Set("q", q.Location)
		}
		values.Set("appid", p.apiKey)

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	return doRequestWithResilience(ctx, p.name, p.httpCfg, p.circuit, buildRequest)
}

func unixUTC(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
