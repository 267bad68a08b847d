package weather

import "strings"

// MaxForecastDays caps the daily forecast.
const MaxForecastDays = 5

// ForecastDateLayout is the time layout of WeatherForecast.Date.
const ForecastDateLayout = "2006-01-02 15:04:05"

// DayKey returns the calendar-day portion of a "<day> <time>" timestamp.
// Without a space the whole string is the key.
func DayKey(date string) string {
	day, _, _ := strings.Cut(date, " ")
	return day
}

// WindowForecast collapses chronologically ordered samples into at most
// MaxForecastDays entries, keeping the first sample seen for each day key.
func WindowForecast(samples []WeatherForecast) []WeatherForecast {
	out := make([]WeatherForecast, 0, MaxForecastDays)
	seen := make(map[string]struct{}, MaxForecastDays)

	for _, s := range samples {
		if len(out) >= MaxForecastDays {
			break
		}
		k := DayKey(s.Date)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
