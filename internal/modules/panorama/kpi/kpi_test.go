package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorpanorama/internal/modules/panorama/types"
)

func point(h int, t, hum, p float64) types.AggregatedPoint {
	return types.AggregatedPoint{
		Timestamp:   time.Date(2024, 1, 8, h, 0, 0, 0, time.UTC),
		Temperature: t, Humidity: hum, Pressure: p,
	}
}

func TestSummaries(t *testing.T) {
	got := Summaries([]types.AggregatedPoint{
		point(1, 20, 40, 1000),
		point(2, 24, 44, 1004),
		point(3, 22, 30, 990),
	})
	require.Len(t, got, 3)

	temp := got[0]
	assert.Equal(t, types.MetricTemperature, temp.Metric)
	assert.True(t, temp.HasData)
	assert.InDelta(t, 22, temp.Last, 1e-9)
	assert.InDelta(t, 22, temp.Avg, 1e-9)
	assert.InDelta(t, 20, temp.Min, 1e-9)
	assert.InDelta(t, 24, temp.Max, 1e-9)

	assert.Equal(t, "%", got[1].Unit)
	assert.InDelta(t, 30, got[1].Min, 1e-9)
	assert.InDelta(t, 1004, got[2].Max, 1e-9)
}

func TestSummaries_NoData(t *testing.T) {
	got := Summaries(nil)
	require.Len(t, got, 3)
	for _, s := range got {
		assert.False(t, s.HasData)
		assert.Equal(t, "-", Format(s.Avg, s.HasData))
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "21.00", Format(21, true))
	assert.Equal(t, "1001.13", Format(1001.126, true))
	assert.Equal(t, "-0.50", Format(-0.5, true))
	assert.Equal(t, "-", Format(3, false))
}

func TestRangeLabel(t *testing.T) {
	d := func(m time.Month, day int) time.Time { return time.Date(2024, m, day, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		iv     types.Interval
		mode   types.Mode
		custom bool
		want   string
	}{
		{"day", types.Interval{Start: d(1, 8), End: d(1, 9)}, types.ModeDay, false, "Montag, 08. Jan. 2024"},
		{"week", types.Interval{Start: d(1, 8), End: d(1, 15)}, types.ModeWeek, false, "KW 2, 2024 (08.01 - 14.01)"},
		{"week from sunday", types.Interval{Start: d(1, 7), End: d(1, 14)}, types.ModeWeek, false, "KW 2, 2024 (07.01 - 13.01)"},
		{"month", types.Interval{Start: d(3, 1), End: d(4, 1)}, types.ModeMonth, false, "März 2024"},
		{"year", types.Interval{Start: d(1, 1), End: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}, types.ModeYear, false, "2024"},
		{"custom", types.Interval{Start: time.Date(2024, 1, 8, 6, 30, 0, 0, time.UTC), End: d(1, 9)}, types.ModeDay, true, "08.01.2024 06:30 - 08.01.2024 23:59"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RangeLabel(tt.iv, tt.mode, tt.custom))
		})
	}
}

func TestChartTitleAndFocusLabel(t *testing.T) {
	assert.Equal(t, "Messwerte WEEK (12 Punkte)", ChartTitle(types.ModeWeek, 12))
	assert.Equal(t, "Dienstag, 09.01.2024 14:05", FocusLabel(time.Date(2024, 1, 9, 14, 5, 0, 0, time.UTC)))
}

func TestStatusFor(t *testing.T) {
	points := []types.AggregatedPoint{point(1, 1, 1, 1), point(2, 2, 2, 2)}

	st := StatusFor(points, "")
	assert.Equal(t, ToneOK, st.Tone)
	assert.Equal(t, "2 Werte im Fokus. Letzter Punkt: 08.01.2024 02:00", st.Text)

	st = StatusFor(nil, "")
	assert.Equal(t, ToneError, st.Tone)
	assert.Equal(t, "Keine Daten im gewaehlten Zeitraum.", st.Text)

	st = StatusFor(nil, "Daten fehlen")
	assert.Equal(t, Status{Text: "Daten fehlen", Tone: ToneError}, st)
}
