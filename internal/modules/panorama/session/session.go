// Package session holds the view state of one dashboard and answers its query.
//
// A Session is owned by a single caller. All state changes go through the
// transition methods; Query is the only read the presentation layer needs.
package session

import (
	"errors"
	"time"

	"sensorpanorama/internal/modules/panorama/aggregate"
	"sensorpanorama/internal/modules/panorama/interval"
	"sensorpanorama/internal/modules/panorama/types"
)

var ErrInvalidMode = errors.New("invalid mode")

type Session struct {
	Mode        types.Mode
	Anchor      time.Time
	CustomRange *types.Interval
	Visible     []types.MetricKey
	Focus       int

	resolver interval.Resolver
}

// Result is what one refresh produces.
type Result struct {
	Interval types.Interval
	Points   []types.AggregatedPoint
}

// New starts a day-mode session anchored at the start of today with all
// metrics visible.
func New(resolver interval.Resolver, now time.Time) *Session {
	s := &Session{
		Mode:     types.ModeDay,
		resolver: resolver,
	}
	s.Anchor = resolver.Floor(types.ModeDay, now)
	for _, m := range types.Metrics {
		s.Visible = append(s.Visible, m.Key)
	}
	return s
}

func (s *Session) Resolver() interval.Resolver {
	return s.resolver
}

// SetMode switches granularity and drops any custom range.
func (s *Session) SetMode(mode types.Mode) error {
	if _, err := types.ParseMode(string(mode)); err != nil {
		return errors.Join(ErrInvalidMode, err)
	}
	s.Mode = mode
	s.CustomRange = nil
	return nil
}

// SetAnchor replaces the anchor without flooring it.
func (s *Session) SetAnchor(anchor time.Time) {
	s.Anchor = anchor.In(s.resolver.Loc())
}

// Step moves the anchor one unit forward (direction > 0) or back and drops
// any custom range.
func (s *Session) Step(direction int) {
	s.CustomRange = nil
	if direction == 0 {
		return
	}
	s.Anchor = s.resolver.Step(s.Mode, s.Anchor, direction)
}

// SetCustomRange overrides the mode interval until the next mode change,
// preset or step. The range is taken as given.
func (s *Session) SetCustomRange(start, end time.Time) {
	iv := s.resolver.Custom(start, end)
	s.CustomRange = &iv
}

// ApplyPreset adopts the preset's mode and anchor.
func (s *Session) ApplyPreset(p Preset) {
	s.Mode = p.Mode
	s.Anchor = p.Anchor
	s.CustomRange = nil
}

// SnapToLatest anchors the session at the start of the day of the newest
// reading. readings must be sorted ascending; an empty set is a no-op.
func (s *Session) SnapToLatest(readings []types.Reading) {
	if len(readings) == 0 {
		return
	}
	latest := readings[len(readings)-1].Timestamp
	s.Anchor = s.resolver.Floor(types.ModeDay, latest)
}

// SetVisible replaces the visible metric set. Unknown keys are ignored; an
// empty result leaves the set unchanged so at least one metric stays visible.
func (s *Session) SetVisible(keys []types.MetricKey) {
	var next []types.MetricKey
	for _, m := range types.Metrics {
		for _, k := range keys {
			if k == m.Key {
				next = append(next, m.Key)
				break
			}
		}
	}
	if len(next) > 0 {
		s.Visible = next
	}
}

// ToggleMetric flips visibility of key. Hiding the last visible metric is
// refused.
func (s *Session) ToggleMetric(key types.MetricKey) {
	if _, ok := types.LookupMetric(key); !ok {
		return
	}
	if s.IsVisible(key) {
		if len(s.Visible) == 1 {
			return
		}
		next := make([]types.MetricKey, 0, len(s.Visible)-1)
		for _, k := range s.Visible {
			if k != key {
				next = append(next, k)
			}
		}
		s.Visible = next
		return
	}
	s.SetVisible(append(append([]types.MetricKey{}, s.Visible...), key))
}

func (s *Session) IsVisible(key types.MetricKey) bool {
	for _, k := range s.Visible {
		if k == key {
			return true
		}
	}
	return false
}

// VisibleMetrics returns the visible metrics in catalogue order.
func (s *Session) VisibleMetrics() []types.Metric {
	out := make([]types.Metric, 0, len(s.Visible))
	for _, m := range types.Metrics {
		if s.IsVisible(m.Key) {
			out = append(out, m)
		}
	}
	return out
}

// SetFocus stores the focused point index; it is clamped by ClampFocus.
func (s *Session) SetFocus(i int) {
	s.Focus = i
}

// ClampFocus bounds the focus index to [0, n-1] (0 when n == 0).
func (s *Session) ClampFocus(n int) int {
	if n <= 0 || s.Focus < 0 {
		s.Focus = 0
	} else if s.Focus > n-1 {
		s.Focus = n - 1
	}
	return s.Focus
}

// Interval returns the active interval: the custom range if set, otherwise
// the mode interval around the anchor.
func (s *Session) Interval() types.Interval {
	if s.CustomRange != nil {
		return *s.CustomRange
	}
	return s.resolver.Resolve(s.Mode, s.Anchor)
}

// Query resolves the interval, filters readings into it and aggregates them
// for the current mode.
func (s *Session) Query(readings []types.Reading) Result {
	iv := s.Interval()
	points := aggregate.Aggregate(aggregate.Filter(readings, iv), s.Mode)
	s.ClampFocus(len(points))
	return Result{Interval: iv, Points: points}
}
