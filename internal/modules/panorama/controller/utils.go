package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sensorpanorama/internal/modules/panorama/interval"
	"sensorpanorama/internal/modules/panorama/session"
	"sensorpanorama/internal/modules/panorama/types"
)

const (
	anchorLayout      = time.DateOnly
	customRangeLayout = "2006-01-02T15:04"
)

// parseTime accepts RFC 3339 or the datetime-local form value layout, the
// latter interpreted in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range []string{customRangeLayout, anchorLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339, %s or %s)", s, customRangeLayout, anchorLayout)
}

// sessionFromQuery rebuilds the view session a request describes. Order of
// application: defaults, snap to latest reading, preset, mode, anchor, custom
// range, step, metrics, focus. A step with a custom range in the query drops
// the range.
func sessionFromQuery(r *http.Request, resolver interval.Resolver, readings []types.Reading, now time.Time) (*session.Session, error) {
	q := r.URL.Query()
	s := session.New(resolver, now)
	s.SnapToLatest(readings)

	if key := q.Get("preset"); key != "" {
		p, ok := session.FindPreset(session.Presets(resolver, now), key)
		if !ok {
			return nil, fmt.Errorf("invalid 'preset' %q", key)
		}
		s.ApplyPreset(p)
	}

	if v := q.Get("mode"); v != "" {
		mode, err := types.ParseMode(v)
		if err != nil {
			return nil, err
		}
		if err := s.SetMode(mode); err != nil {
			return nil, err
		}
	}

	if v := q.Get("anchor"); v != "" {
		t, err := parseTime(v, resolver.Loc())
		if err != nil {
			return nil, errors.New("invalid 'anchor' (expected YYYY-MM-DD)")
		}
		s.SetAnchor(t)
	}

	from, to := q.Get("from"), q.Get("to")
	if from != "" || to != "" {
		if from == "" || to == "" {
			return nil, errors.New("'from' and 'to' must be given together")
		}
		start, err := parseTime(from, resolver.Loc())
		if err != nil {
			return nil, errors.New("invalid 'from'")
		}
		end, err := parseTime(to, resolver.Loc())
		if err != nil {
			return nil, errors.New("invalid 'to'")
		}
		s.SetCustomRange(start, end)
	}

	if v := q.Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("invalid 'step' (expected integer)")
		}
		s.Step(n)
	}

	if v := q.Get("metrics"); v != "" {
		var keys []types.MetricKey
		for _, k := range strings.Split(v, ",") {
			key := types.MetricKey(strings.TrimSpace(k))
			if _, ok := types.LookupMetric(key); !ok {
				return nil, fmt.Errorf("invalid metric %q", k)
			}
			keys = append(keys, key)
		}
		s.SetVisible(keys)
	}

	if v := q.Get("focus"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("invalid 'focus' (expected integer)")
		}
		s.SetFocus(n)
	}

	return s, nil
}

// stateQuery encodes s as the canonical query string for links. The custom
// range is carried only while it is active.
func stateQuery(s *session.Session) url.Values {
	q := url.Values{}
	q.Set("mode", string(s.Mode))
	q.Set("anchor", s.Anchor.Format(anchorLayout))
	if s.CustomRange != nil {
		q.Set("from", s.CustomRange.Start.Format(customRangeLayout))
		q.Set("to", s.CustomRange.End.Format(customRangeLayout))
	}
	q.Set("metrics", metricsCSV(s.Visible))
	return q
}

func metricsCSV(keys []types.MetricKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

func with(q url.Values, key, value string) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	if value == "" {
		out.Del(key)
	} else {
		out.Set(key, value)
	}
	return out
}

func href(path string, q url.Values) string {
	return path + "?" + q.Encode()
}

type axisUpdate struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// parseAxisUpdate reads {min, max} from a JSON body or from form values.
func parseAxisUpdate(r *http.Request) (float64, float64, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body axisUpdate
		if err := decodeJSON(r, &body); err != nil {
			return 0, 0, err
		}
		if body.Min == nil || body.Max == nil {
			return 0, 0, errors.New("'min' and 'max' are required")
		}
		return *body.Min, *body.Max, nil
	}

	if err := r.ParseForm(); err != nil {
		return 0, 0, errors.New("invalid form body")
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(r.Form.Get("min")), 64)
	if err != nil {
		return 0, 0, errors.New("invalid 'min' (expected number)")
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(r.Form.Get("max")), 64)
	if err != nil {
		return 0, 0, errors.New("invalid 'max' (expected number)")
	}
	return lo, hi, nil
}
