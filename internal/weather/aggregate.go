package weather

import (
	"sort"
	"strings"
	"time"
)

// DailySample is the representative sample chosen for one UTC calendar day.
type DailySample struct {
	Date time.Time `json:"date"` // midnight UTC
	Sample
}

// Daily groups the forecast by UTC date and picks one sample per day: the
// 12:00:00 step when present, otherwise the middle step of that day.
// At most limit days are returned; limit <= 0 means all of them.
func (f Forecast) Daily(limit int) []DailySample {
	type dayKey string

	var order []dayKey
	byDay := make(map[dayKey][]Sample)
	midnight := make(map[dayKey]time.Time)

	for _, s := range f.Samples {
		ts := s.Timestamp.UTC()
		k := dayKey(ts.Format("2006-01-02"))

		if _, exists := byDay[k]; !exists {
			order = append(order, k)
			midnight[k] = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		}
		byDay[k] = append(byDay[k], s)
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	days := make([]DailySample, 0, len(order))
	for _, k := range order {
		if limit > 0 && len(days) >= limit {
			break
		}
		days = append(days, DailySample{
			Date:   midnight[k],
			Sample: pickMidday(byDay[k]),
		})
	}
	return days
}

func pickMidday(samples []Sample) Sample {
	for _, s := range samples {
		if strings.Contains(s.DtTxt, "12:00:00") {
			return s
		}
	}
	return samples[len(samples)/2]
}
