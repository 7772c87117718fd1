// Package aggregate buckets readings into per-mode time buckets and averages them.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"sensorpanorama/internal/modules/panorama/types"
)

// keyFunc maps a timestamp to its bucket key. A nil keyFunc means no bucketing.
type keyFunc func(t time.Time) string

var bucketKeys = map[types.Mode]keyFunc{
	types.ModeDay:   nil,
	types.ModeWeek:  hourKey,
	types.ModeMonth: dayKey,
	types.ModeYear:  isoWeekKey,
}

// hourKey floors the instant itself, so the repeated hour of a DST
// fall-back yields two keys with distinct offsets.
func hourKey(t time.Time) string {
	into := time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	return t.Add(-into).Format(time.RFC3339)
}

func dayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func isoWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

type bucket struct {
	count       int
	first       time.Time
	temperature float64
	humidity    float64
	pressure    float64
}

// Filter returns the readings inside iv, preserving order.
func Filter(readings []types.Reading, iv types.Interval) []types.Reading {
	out := make([]types.Reading, 0)
	for _, r := range readings {
		if iv.Contains(r.Timestamp) {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate reduces readings for mode. Day mode (and any unknown mode) passes
// readings through; other modes average per bucket, stamped with the earliest
// member's timestamp. The result is sorted ascending by timestamp.
func Aggregate(readings []types.Reading, mode types.Mode) []types.AggregatedPoint {
	key := bucketKeys[mode]
	if key == nil {
		return passThrough(readings)
	}

	buckets := make(map[string]*bucket)
	order := make([]string, 0)
	for _, r := range readings {
		k := key(r.Timestamp)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{first: r.Timestamp}
			buckets[k] = b
			order = append(order, k)
		}
		b.count++
		b.temperature += r.Temperature
		b.humidity += r.Humidity
		b.pressure += r.Pressure
		if r.Timestamp.Before(b.first) {
			b.first = r.Timestamp
		}
	}

	out := make([]types.AggregatedPoint, 0, len(order))
	for _, k := range order {
		b := buckets[k]
		n := float64(b.count)
		out = append(out, types.AggregatedPoint{
			Timestamp:   b.first,
			Temperature: b.temperature / n,
			Humidity:    b.humidity / n,
			Pressure:    b.pressure / n,
		})
	}
	sortPoints(out)
	return out
}

func passThrough(readings []types.Reading) []types.AggregatedPoint {
	out := make([]types.AggregatedPoint, len(readings))
	for i, r := range readings {
		out[i] = types.AggregatedPoint(r)
	}
	sortPoints(out)
	return out
}

func sortPoints(points []types.AggregatedPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
}
