package widgets

import (
	"fmt"

	"github.com/i474232898/dashboard-data-aggregation/internal/format"
	"github.com/i474232898/dashboard-data-aggregation/internal/query"
	"github.com/i474232898/dashboard-data-aggregation/internal/store"
	"github.com/i474232898/dashboard-data-aggregation/internal/weather"
)

const forecastDays = 5

// CurrentWeatherView is the current conditions card.
type CurrentWeatherView struct {
	View
	Location    string            `json:"location"`
	Unit        string            `json:"unit"`
	Place       string            `json:"place,omitempty"`
	Description string            `json:"description,omitempty"`
	IconCode    string            `json:"icon,omitempty"`
	Condition   weather.Condition `json:"condition,omitempty"`
	Temperature string            `json:"temperature,omitempty"`
	FeelsLike   string            `json:"feelsLike,omitempty"`
	Wind        string            `json:"wind,omitempty"`
	Humidity    string            `json:"humidity,omitempty"`
}

// CurrentWeather renders the conditions for location in unit.
func CurrentWeather(location string, r query.TypedResult[weather.Current], unit store.TemperatureUnit) CurrentWeatherView {
	v := CurrentWeatherView{
		View: resolve(r, nil, messages{
			idle: "Search for a location to see the weather.",
			err:  "Error loading weather data. Please try a different location.",
		}),
		Location: location,
		Unit:     unitSymbol(unit),
	}
	if !r.HasData {
		return v
	}

	cur := r.Data
	f := unit == store.Fahrenheit
	v.Place = placeName(cur.Place)
	v.Description = cur.Description
	v.IconCode = cur.IconCode
	v.Condition = weather.ConditionForIcon(cur.IconCode)
	v.Temperature = format.Temperature(cur.Temperature, f)
	v.FeelsLike = format.Temperature(cur.FeelsLike, f)
	v.Wind = windSpeed(cur.WindSpeed)
	v.Humidity = fmt.Sprintf("%g%%", cur.Humidity)
	return v
}

// ForecastView is the multi-day forecast card plus its temperature chart.
type ForecastView struct {
	View
	Title string          `json:"title"`
	Unit  string          `json:"unit"`
	Days  []ForecastDay   `json:"days"`
	Chart []ForecastPoint `json:"chart"`
}

// ForecastDay is the representative reading for one day.
type ForecastDay struct {
	Date        string            `json:"date"`
	Temperature string            `json:"temperature"`
	Description string            `json:"description"`
	IconCode    string            `json:"icon"`
	Condition   weather.Condition `json:"condition"`
	Humidity    string            `json:"humidity"`
	Wind        string            `json:"wind"`
}

// ForecastPoint is one 3-hour step on the chart.
type ForecastPoint struct {
	Time        string  `json:"time"`
	Temperature int     `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
}

// Forecast renders up to five days of forecast in unit.
func Forecast(r query.TypedResult[weather.Forecast], unit store.TemperatureUnit) ForecastView {
	v := ForecastView{
		View: resolve(r, func(f weather.Forecast) bool { return len(f.Samples) == 0 }, messages{
			idle:  "Search for a location to see the forecast.",
			err:   "Error loading forecast data. Please try a different location.",
			empty: "No forecast data available.",
		}),
		Title: "Weather Forecast",
		Unit:  unitSymbol(unit),
		Days:  []ForecastDay{},
		Chart: []ForecastPoint{},
	}
	if !r.HasData {
		return v
	}

	fc := r.Data
	f := unit == store.Fahrenheit
	if fc.City.Name != "" {
		v.Title = placeName(fc.City) + " Forecast"
	}

	for _, d := range fc.Daily(forecastDays) {
		v.Days = append(v.Days, ForecastDay{
			Date:        format.Date(d.Date, format.LayoutDay),
			Temperature: format.Temperature(d.Temperature, f),
			Description: d.Description,
			IconCode:    d.IconCode,
			Condition:   weather.ConditionForIcon(d.IconCode),
			Humidity:    fmt.Sprintf("%g%%", d.Humidity),
			Wind:        windSpeed(d.WindSpeed),
		})
	}
	for _, s := range fc.Samples {
		v.Chart = append(v.Chart, ForecastPoint{
			Time:        format.Date(s.Timestamp, format.LayoutChartTick),
			Temperature: convert(s.Temperature, f),
			Humidity:    s.Humidity,
			WindSpeed:   s.WindSpeed,
		})
	}
	return v
}

func convert(kelvin float64, fahrenheit bool) int {
	if fahrenheit {
		return format.KelvinToFahrenheit(kelvin)
	}
	return format.KelvinToCelsius(kelvin)
}

func unitSymbol(unit store.TemperatureUnit) string {
	if unit == store.Fahrenheit {
		return "F"
	}
	return "C"
}

func placeName(p weather.Place) string {
	if p.Country == "" {
		return p.Name
	}
	return p.Name + ", " + p.Country
}

func windSpeed(ms float64) string {
	return fmt.Sprintf("%g m/s", ms)
}
