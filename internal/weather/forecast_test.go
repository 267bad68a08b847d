package weather

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(date string, max float64) WeatherForecast {
	return WeatherForecast{Date: date, MaxTemp: max, MinTemp: max - 5, Description: "clear sky", IconCode: "01d"}
}

func TestWindowForecastSevenSamples(t *testing.T) {
	in := []WeatherForecast{
		sample("2024-01-01 12:00:00", 1),
		sample("2024-01-01 15:00:00", 2),
		sample("2024-01-02 12:00:00", 3),
		sample("2024-01-03 12:00:00", 4),
		sample("2024-01-04 12:00:00", 5),
		sample("2024-01-05 12:00:00", 6),
		sample("2024-01-06 12:00:00", 7),
	}

	got := WindowForecast(in)

	require.Len(t, got, 5)
	assert.Equal(t, []WeatherForecast{in[0], in[2], in[3], in[4], in[5]}, got)
}

func TestWindowForecastEmpty(t *testing.T) {
	got := WindowForecast(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWindowForecastSingleDay(t *testing.T) {
	in := []WeatherForecast{
		sample("2024-03-10 00:00:00", 1),
		sample("2024-03-10 03:00:00", 2),
		sample("2024-03-10 06:00:00", 3),
	}
	got := WindowForecast(in)
	require.Len(t, got, 1)
	assert.Equal(t, in[0], got[0])
}

func TestWindowForecastFewerThanFiveDays(t *testing.T) {
	in := []WeatherForecast{
		sample("2024-03-10 00:00:00", 1),
		sample("2024-03-11 03:00:00", 2),
		sample("2024-03-11 06:00:00", 3),
	}
	got := WindowForecast(in)
	assert.Equal(t, []WeatherForecast{in[0], in[1]}, got)
}

func TestWindowForecastMalformedDates(t *testing.T) {
	in := []WeatherForecast{
		sample("tomorrow", 1),
		sample("tomorrow", 2),
		sample("2024-03-10T00:00:00", 3),
		sample("2024-03-10T03:00:00", 4),
	}
	got := WindowForecast(in)
	assert.Equal(t, []WeatherForecast{in[0], in[2], in[3]}, got)
}

// TestWindowForecastProperties checks length, first-wins and order over a
// 3-hourly feed spanning a varying number of days.
func TestWindowForecastProperties(t *testing.T) {
	for days := 0; days <= 8; days++ {
		t.Run(fmt.Sprintf("%d days", days), func(t *testing.T) {
			var in []WeatherForecast
			for d := 0; d < days; d++ {
				for h := 0; h < 24; h += 3 {
					in = append(in, sample(fmt.Sprintf("2024-02-%02d %02d:00:00", d+1, h), float64(d*100+h)))
				}
			}

			got := WindowForecast(in)

			assert.Len(t, got, min(MaxForecastDays, days))
			for i, f := range got {
				assert.Equal(t, fmt.Sprintf("2024-02-%02d 00:00:00", i+1), f.Date)
			}
			assert.Equal(t, got, WindowForecast(got), "windowing must be idempotent")
		})
	}
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "2024-01-01", DayKey("2024-01-01 12:00:00"))
	assert.Equal(t, "2024-01-01", DayKey("2024-01-01"))
	assert.Equal(t, "", DayKey(" 12:00:00"))
}
