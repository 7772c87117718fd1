// Package parser turns the pipe-delimited sensor log into ordered readings.
//
// The expected layout is a header line followed by lines of
// `<ISO-8601 local timestamp>|<temperature>|<humidity>|<pressure>`.
// Lines that fail validation are skipped, never reported as errors.
package parser

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/relvacode/iso8601"

	"sensorpanorama/internal/modules/panorama/types"
)

const delimiter = "|"

// minute precision is what the data logger writes; iso8601 may reject it
var fallbackLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Result carries the readings plus a count of dropped lines for diagnostics.
type Result struct {
	Readings []types.Reading
	Skipped  int
}

// Parse parses content with timestamps interpreted in loc.
func Parse(content string, loc *time.Location) Result {
	if loc == nil {
		loc = time.Local
	}

	lines := nonEmptyLines(content)
	if len(lines) < 2 {
		return Result{Readings: []types.Reading{}}
	}

	out := make([]types.Reading, 0, len(lines)-1)
	skipped := 0
	for _, line := range lines[1:] {
		r, ok := parseLine(line, loc)
		if !ok {
			skipped++
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return Result{Readings: out, Skipped: skipped}
}

func nonEmptyLines(content string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func parseLine(line string, loc *time.Location) (types.Reading, bool) {
	fields := strings.Split(line, delimiter)
	if len(fields) < 4 {
		return types.Reading{}, false
	}

	ts, ok := parseTimestamp(strings.TrimSpace(fields[0]), loc)
	if !ok {
		return types.Reading{}, false
	}

	var vals [3]float64
	for i := range vals {
		v, ok := parseNumber(fields[i+1])
		if !ok {
			return types.Reading{}, false
		}
		vals[i] = v
	}

	return types.Reading{
		Timestamp:   ts,
		Temperature: vals[0],
		Humidity:    vals[1],
		Pressure:    vals[2],
	}, true
}

func parseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	// Zoned timestamps are converted so bucketing happens on local days.
	if t, err := iso8601.ParseInLocation([]byte(s), loc); err == nil {
		return t.In(loc), true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
