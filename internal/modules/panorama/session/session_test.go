package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorpanorama/internal/modules/panorama/interval"
	"sensorpanorama/internal/modules/panorama/parser"
	"sensorpanorama/internal/modules/panorama/types"
)

var resolver = interval.NewResolver(time.UTC, time.Monday)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	s := New(resolver, time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC))

	assert.Equal(t, types.ModeDay, s.Mode)
	assert.Equal(t, date(2024, 5, 6), s.Anchor)
	assert.Nil(t, s.CustomRange)
	assert.Equal(t, []types.MetricKey{types.MetricTemperature, types.MetricHumidity, types.MetricPressure}, s.Visible)
}

func TestEndToEndSample(t *testing.T) {
	readings := parser.Parse("header\n2024-01-01T00:00|20|40|1000\n2024-01-01T12:00|22|42|1002\n", time.UTC).Readings

	s := New(resolver, date(2024, 1, 1))
	day := s.Query(readings)
	require.Len(t, day.Points, 2)
	assert.Equal(t, types.AggregatedPoint(readings[0]), day.Points[0])
	assert.Equal(t, types.AggregatedPoint(readings[1]), day.Points[1])

	require.NoError(t, s.SetMode(types.ModeMonth))
	s.SetAnchor(date(2024, 1, 20))
	month := s.Query(readings)
	require.Len(t, month.Points, 1)
	p := month.Points[0]
	assert.True(t, date(2024, 1, 1).Equal(p.Timestamp), "bucket timestamp %v", p.Timestamp)
	assert.InDelta(t, 21, p.Temperature, 1e-9)
	assert.InDelta(t, 41, p.Humidity, 1e-9)
	assert.InDelta(t, 1001, p.Pressure, 1e-9)
}

func TestQuery_EmptyInput(t *testing.T) {
	readings := parser.Parse("header only\n", time.UTC).Readings
	s := New(resolver, date(2024, 1, 1))
	for _, mode := range types.Modes {
		require.NoError(t, s.SetMode(mode))
		res := s.Query(readings)
		assert.Empty(t, res.Points)
		assert.Zero(t, s.Focus)
	}
}

func TestStep_WeekClearsCustomRange(t *testing.T) {
	s := New(resolver, date(2024, 1, 10))
	require.NoError(t, s.SetMode(types.ModeWeek))
	s.SetAnchor(resolver.Floor(types.ModeWeek, date(2024, 1, 10)))
	orig := s.Interval()
	assert.Equal(t, types.Interval{Start: date(2024, 1, 8), End: date(2024, 1, 15)}, orig)

	s.SetCustomRange(date(2023, 6, 1), date(2023, 6, 2))
	s.Step(1)
	assert.Nil(t, s.CustomRange)
	assert.Equal(t, types.Interval{Start: date(2024, 1, 15), End: date(2024, 1, 22)}, s.Interval())

	s.Step(-1)
	assert.Equal(t, orig, s.Interval())

	s.SetCustomRange(date(2023, 6, 1), date(2023, 6, 2))
	s.Step(-1)
	assert.Nil(t, s.CustomRange)
	assert.Equal(t, types.Interval{Start: date(2024, 1, 1), End: date(2024, 1, 8)}, s.Interval())
}

func TestStep_ZeroOnlyClearsCustomRange(t *testing.T) {
	s := New(resolver, date(2024, 1, 10))
	s.SetCustomRange(date(2024, 1, 1), date(2024, 1, 2))
	s.Step(0)
	assert.Nil(t, s.CustomRange)
	assert.Equal(t, date(2024, 1, 10), s.Anchor)
}

func TestSetMode(t *testing.T) {
	s := New(resolver, date(2024, 1, 10))
	s.SetCustomRange(date(2024, 1, 1), date(2024, 1, 2))

	err := s.SetMode(types.Mode("decade"))
	require.ErrorIs(t, err, ErrInvalidMode)
	assert.Equal(t, types.ModeDay, s.Mode)
	assert.NotNil(t, s.CustomRange, "rejected mode change keeps state")

	require.NoError(t, s.SetMode(types.ModeYear))
	assert.Nil(t, s.CustomRange)
	assert.Equal(t, types.Interval{Start: date(2024, 1, 1), End: date(2025, 1, 1)}, s.Interval())
}

func TestCustomRange_OverridesModeAndIsPermissive(t *testing.T) {
	readings := []types.Reading{
		{Timestamp: time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), Temperature: 1},
		{Timestamp: time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC), Temperature: 2},
	}
	s := New(resolver, date(2024, 3, 1))

	s.SetCustomRange(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), date(2024, 1, 2))
	res := s.Query(readings)
	require.Len(t, res.Points, 1)
	assert.Equal(t, 2.0, res.Points[0].Temperature)

	s.SetCustomRange(date(2024, 1, 2), date(2024, 1, 1))
	assert.Empty(t, s.Query(readings).Points)
}

func TestSnapToLatest(t *testing.T) {
	s := New(resolver, date(2024, 3, 1))
	s.SnapToLatest(nil)
	assert.Equal(t, date(2024, 3, 1), s.Anchor)

	s.SnapToLatest([]types.Reading{
		{Timestamp: time.Date(2023, 12, 30, 8, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2023, 12, 31, 22, 15, 0, 0, time.UTC)},
	})
	assert.Equal(t, date(2023, 12, 31), s.Anchor)
}

func TestVisibility(t *testing.T) {
	s := New(resolver, date(2024, 1, 1))

	s.ToggleMetric(types.MetricHumidity)
	assert.False(t, s.IsVisible(types.MetricHumidity))
	s.ToggleMetric(types.MetricTemperature)
	s.ToggleMetric(types.MetricPressure) // last one stays
	assert.Equal(t, []types.MetricKey{types.MetricPressure}, s.Visible)

	s.ToggleMetric(types.MetricTemperature)
	assert.Equal(t, []types.MetricKey{types.MetricTemperature, types.MetricPressure}, s.Visible)

	s.ToggleMetric(types.MetricKey("co2"))
	assert.Len(t, s.Visible, 2)

	s.SetVisible([]types.MetricKey{"co2"})
	assert.Len(t, s.Visible, 2, "empty result is ignored")

	s.SetVisible([]types.MetricKey{types.MetricPressure, types.MetricHumidity})
	assert.Equal(t, []types.MetricKey{types.MetricHumidity, types.MetricPressure}, s.Visible)

	metrics := s.VisibleMetrics()
	require.Len(t, metrics, 2)
	assert.Equal(t, types.MetricHumidity, metrics[0].Key)
}

func TestClampFocus(t *testing.T) {
	s := New(resolver, date(2024, 1, 1))
	tests := []struct {
		focus, n, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{-3, 4, 0},
		{2, 4, 2},
		{9, 4, 3},
	}
	for _, tt := range tests {
		s.SetFocus(tt.focus)
		assert.Equal(t, tt.want, s.ClampFocus(tt.n), "focus %d n %d", tt.focus, tt.n)
	}
}

func TestPresets(t *testing.T) {
	now := time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC) // Wednesday
	presets := Presets(resolver, now)
	require.Len(t, presets, 6)

	want := map[string]struct {
		mode   types.Mode
		anchor time.Time
	}{
		"today":      {types.ModeDay, date(2024, 3, 6)},
		"yesterday":  {types.ModeDay, date(2024, 3, 5)},
		"this-week":  {types.ModeWeek, date(2024, 3, 4)},
		"last-week":  {types.ModeWeek, date(2024, 2, 26)},
		"this-month": {types.ModeMonth, date(2024, 3, 1)},
		"this-year":  {types.ModeYear, date(2024, 1, 1)},
	}
	for key, w := range want {
		p, ok := FindPreset(presets, key)
		require.True(t, ok, key)
		assert.Equal(t, w.mode, p.Mode, key)
		assert.Equal(t, w.anchor, p.Anchor, key)
		assert.NotEmpty(t, p.Label, key)
	}

	_, ok := FindPreset(presets, "next-year")
	assert.False(t, ok)

	s := New(resolver, now)
	s.SetCustomRange(date(2024, 1, 1), date(2024, 1, 2))
	p, _ := FindPreset(presets, "last-week")
	s.ApplyPreset(p)
	assert.Nil(t, s.CustomRange)
	assert.Equal(t, types.Interval{Start: date(2024, 2, 26), End: date(2024, 3, 4)}, s.Interval())
}
