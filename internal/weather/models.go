package weather

import (
	"strconv"
	"strings"
	"time"
)

// Condition is the coarse icon group a weather icon code belongs to.
type Condition string

const (
	ConditionSun     Condition = "sun"
	ConditionCloud   Condition = "cloud"
	ConditionRain    Condition = "rain"
	ConditionDefault Condition = "default"
)

// ConditionForIcon maps an OpenWeatherMap icon code such as "10d" to its group.
func ConditionForIcon(iconCode string) Condition {
	if len(iconCode) < 2 {
		return ConditionDefault
	}
	switch iconCode[:2] {
	case "01":
		return ConditionSun
	case "02", "03", "04":
		return ConditionCloud
	case "09", "10":
		return ConditionRain
	default:
		return ConditionDefault
	}
}

// Query selects a place either by name or by coordinates.
// Coordinates win when both are set.
type Query struct {
	Location string   `json:"location,omitempty"`
	Lat      *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lon      *float64 `json:"lon,omitempty" validate:"omitempty,longitude"`
}

// ByName builds a Query for a place name such as "London" or "Paris,FR".
func ByName(name string) Query {
	return Query{Location: strings.TrimSpace(name)}
}

// ByCoordinates builds a Query for a latitude/longitude pair.
func ByCoordinates(lat, lon float64) Query {
	return Query{Lat: &lat, Lon: &lon}
}

// HasCoordinates reports whether both coordinates are set.
func (q Query) HasCoordinates() bool {
	return q.Lat != nil && q.Lon != nil
}

// IsZero reports whether the query selects nothing.
func (q Query) IsZero() bool {
	return !q.HasCoordinates() && q.Location == ""
}

func (q Query) String() string {
	if q.HasCoordinates() {
		return strconv.FormatFloat(*q.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(*q.Lon, 'f', -1, 64)
	}
	return q.Location
}

// Place names a city and its ISO country code.
type Place struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// Conditions are the measurements shared by current readings and forecast
// samples. Temperatures are in Kelvin, wind speed in m/s.
type Conditions struct {
	Temperature float64 `json:"temperatureK"`
	FeelsLike   float64 `json:"feelsLikeK"`
	TempMin     float64 `json:"tempMinK"`
	TempMax     float64 `json:"tempMaxK"`
	Pressure    float64 `json:"pressureHpa"`
	Humidity    float64 `json:"humidityPercent"`
	WindSpeed   float64 `json:"windSpeed"`
	WindDeg     float64 `json:"windDeg"`
	Main        string  `json:"main"`
	Description string  `json:"description"`
	IconCode    string  `json:"icon"`
}

// Current is the reading for a place right now.
type Current struct {
	Place      Place     `json:"place"`
	Timestamp  time.Time `json:"timestamp"` // always UTC
	Sunrise    time.Time `json:"sunrise,omitempty"`
	Sunset     time.Time `json:"sunset,omitempty"`
	Conditions `json:"conditions"`
}

// Sample is one 3-hour forecast step.
type Sample struct {
	Timestamp  time.Time `json:"timestamp"` // always UTC
	DtTxt      string    `json:"dtTxt"`
	Conditions `json:"conditions"`
}

// Forecast is the ordered 3-hour forecast for a city.
// Samples are ordered by Timestamp ascending.
type Forecast struct {
	City    Place    `json:"city"`
	Samples []Sample `json:"samples"`
}
