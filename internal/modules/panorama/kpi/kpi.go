// Package kpi derives the summary figures and labels shown around the chart.
package kpi

import (
	"fmt"
	"math"
	"strings"
	"time"

	"sensorpanorama/internal/modules/panorama/types"
)

// Summary holds the KPI figures of one metric over the aggregated points.
// The numeric fields are only meaningful when HasData is true.
type Summary struct {
	Metric  types.MetricKey `json:"metric"`
	Label   string          `json:"label"`
	Unit    string          `json:"unit"`
	HasData bool            `json:"hasData"`
	Last    float64         `json:"last"`
	Avg     float64         `json:"avg"`
	Min     float64         `json:"min"`
	Max     float64         `json:"max"`
}

// Summaries computes one Summary per catalogued metric.
func Summaries(points []types.AggregatedPoint) []Summary {
	out := make([]Summary, 0, len(types.Metrics))
	for _, m := range types.Metrics {
		out = append(out, summarize(m, points))
	}
	return out
}

func summarize(m types.Metric, points []types.AggregatedPoint) Summary {
	s := Summary{Metric: m.Key, Label: m.Label, Unit: m.Unit}
	if len(points) == 0 {
		return s
	}
	s.HasData = true
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	sum := 0.0
	for _, p := range points {
		v := p.Value(m.Key)
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Avg = sum / float64(len(points))
	s.Last = points[len(points)-1].Value(m.Key)
	return s
}

// Format renders v with two decimals, or "-" when there is no data.
func Format(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

var weekdays = [...]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}

var months = [...]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"}

var monthsShort = [...]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."}

const dateTimeLayout = "02.01.2006 15:04"

// RangeLabel describes an interval the way the dashboard header shows it.
func RangeLabel(iv types.Interval, mode types.Mode, custom bool) string {
	start := iv.Start
	end := iv.End.Add(-time.Second)
	if custom {
		return start.Format(dateTimeLayout) + " - " + end.Format(dateTimeLayout)
	}
	switch mode {
	case types.ModeDay:
		return fmt.Sprintf("%s, %s. %s %d", weekdays[start.Weekday()], start.Format("02"), monthsShort[start.Month()-1], start.Year())
	case types.ModeWeek:
		// A Sunday-started week shares its ISO week with the following Monday.
		_, week := start.AddDate(0, 0, 1).ISOWeek()
		return fmt.Sprintf("KW %d, %d (%s - %s)", week, start.Year(), start.Format("02.01"), end.Format("02.01"))
	case types.ModeMonth:
		return fmt.Sprintf("%s %d", months[start.Month()-1], start.Year())
	default:
		return start.Format("2006")
	}
}

// ChartTitle is the heading above the chart.
func ChartTitle(mode types.Mode, n int) string {
	return fmt.Sprintf("Messwerte %s (%d Punkte)", strings.ToUpper(string(mode)), n)
}

// FocusLabel names the instant of a focused point.
func FocusLabel(t time.Time) string {
	return weekdays[t.Weekday()] + ", " + t.Format(dateTimeLayout)
}

// Tone marks a status line as normal or as an error.
type Tone string

const (
	ToneOK    Tone = "ok"
	ToneError Tone = "error"
)

// Status is the one-line status shown above the dashboard.
type Status struct {
	Text string `json:"text"`
	Tone Tone   `json:"tone"`
}

// StatusFor builds the status for a refresh. A non-empty loadError wins.
func StatusFor(points []types.AggregatedPoint, loadError string) Status {
	if loadError != "" {
		return Status{Text: loadError, Tone: ToneError}
	}
	if len(points) == 0 {
		return Status{Text: "Keine Daten im gewaehlten Zeitraum.", Tone: ToneError}
	}
	newest := points[len(points)-1].Timestamp.Format(dateTimeLayout)
	return Status{Text: fmt.Sprintf("%d Werte im Fokus. Letzter Punkt: %s", len(points), newest), Tone: ToneOK}
}
