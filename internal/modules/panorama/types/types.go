package types

import (
	"fmt"
	"strings"
	"time"
)

// Reading is one validated sensor observation.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
}

// AggregatedPoint is either a raw reading (day mode) or a bucket mean.
type AggregatedPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
}

// Value returns the point's value for the given metric.
func (p AggregatedPoint) Value(m MetricKey) float64 {
	switch m {
	case MetricHumidity:
		return p.Humidity
	case MetricPressure:
		return p.Pressure
	default:
		return p.Temperature
	}
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

type Mode string

const (
	ModeDay   Mode = "day"
	ModeWeek  Mode = "week"
	ModeMonth Mode = "month"
	ModeYear  Mode = "year"
)

var Modes = []Mode{ModeDay, ModeWeek, ModeMonth, ModeYear}

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeDay, ModeWeek, ModeMonth, ModeYear:
		return m, nil
	default:
		return "", fmt.Errorf("invalid mode %q (allowed: day, week, month, year)", s)
	}
}

type MetricKey string

const (
	MetricTemperature MetricKey = "temperature"
	MetricHumidity    MetricKey = "humidity"
	MetricPressure    MetricKey = "pressure"
)

// Metric describes how one measured quantity is labelled and plotted.
type Metric struct {
	Key        MetricKey
	Label      string
	Unit       string
	Color      string
	DefaultMin float64
	DefaultMax float64
}

// Metrics is the fixed catalogue in display order.
var Metrics = []Metric{
	{Key: MetricTemperature, Label: "Temperatur", Unit: "°C", Color: "#d24a32", DefaultMin: 15, DefaultMax: 30},
	{Key: MetricHumidity, Label: "Luftfeuchte", Unit: "%", Color: "#226f63", DefaultMin: 20, DefaultMax: 60},
	{Key: MetricPressure, Label: "Druck", Unit: "hPa", Color: "#3f5fca", DefaultMin: 950, DefaultMax: 1100},
}

func LookupMetric(key MetricKey) (Metric, bool) {
	for _, m := range Metrics {
		if m.Key == key {
			return m, true
		}
	}
	return Metric{}, false
}

// AxisRange holds y-axis bounds for one metric.
type AxisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
