// Package format renders numbers, temperatures and dates the way the dashboard
// widgets display them.
package format

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// round rounds half up, so -0.5 becomes 0 and 0.5 becomes 1.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// KelvinToCelsius converts and rounds to the nearest degree.
func KelvinToCelsius(kelvin float64) int {
	return round(kelvin - 273.15)
}

// KelvinToFahrenheit converts and rounds to the nearest degree.
func KelvinToFahrenheit(kelvin float64) int {
	return round((kelvin-273.15)*9/5 + 32)
}

// Temperature renders a Kelvin value as "10°C" or "50°F".
func Temperature(kelvin float64, fahrenheit bool) string {
	if fahrenheit {
		return printer.Sprintf("%d", KelvinToFahrenheit(kelvin)) + "°F"
	}
	return printer.Sprintf("%d", KelvinToCelsius(kelvin)) + "°C"
}

// Currency renders an amount in US dollars: "$1,234.50", "-$1.50".
func Currency(amount float64) string {
	if amount < 0 {
		return "-$" + printer.Sprintf("%.2f", -amount)
	}
	return "$" + printer.Sprintf("%.2f", amount)
}

// SignedCurrency is Currency with an explicit "+" for non-negative amounts.
func SignedCurrency(amount float64) string {
	if amount < 0 {
		return Currency(amount)
	}
	return "+" + Currency(amount)
}

// Signed renders v with two decimals and an explicit sign: "+1.50", "-0.25".
func Signed(v float64) string {
	if v < 0 {
		return printer.Sprintf("%.2f", v)
	}
	return "+" + printer.Sprintf("%.2f", v)
}

// Percent renders v with two decimals and a percent sign: "1.00%".
func Percent(v float64) string {
	return printer.Sprintf("%.2f", v) + "%"
}

// Count renders an integer with thousands separators: "1,234,567".
func Count(n int64) string {
	return printer.Sprintf("%d", n)
}

// Truncate shortens text to maxLen runes followed by "...".
func Truncate(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:maxLen]), " ") + "..."
}

// Date layouts used by the widgets.
const (
	LayoutDay       = "Mon, Jan 2"
	LayoutShortDate = "Jan 2, 2006"
	LayoutLongDate  = "January 2, 2006"
	LayoutChartTick = "01/02 15:04"
	LayoutTime      = "15:04"
)

// Date formats t in UTC with layout.
func Date(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}
