// Package axes manages the persisted y-axis bounds per metric.
package axes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"sensorpanorama/internal/modules/panorama/repository"
	"sensorpanorama/internal/modules/panorama/types"
)

// StorageKey is the preference key holding the JSON map metric -> {min, max}.
const StorageKey = "sensor-panorama-axis-ranges-v1"

// InvalidRangeMessage is the user-facing text for a rejected edit.
const InvalidRangeMessage = "Y-Achse ungueltig: Min muss kleiner als Max sein."

var (
	ErrInvalidRange  = errors.New("min must be finite and smaller than max")
	ErrUnknownMetric = errors.New("unknown metric")
)

type Ranges map[types.MetricKey]types.AxisRange

// Defaults returns the built-in bounds for every metric.
func Defaults() Ranges {
	out := make(Ranges, len(types.Metrics))
	for _, m := range types.Metrics {
		out[m.Key] = types.AxisRange{Min: m.DefaultMin, Max: m.DefaultMax}
	}
	return out
}

func valid(r types.AxisRange) bool {
	return !math.IsNaN(r.Min) && !math.IsInf(r.Min, 0) &&
		!math.IsNaN(r.Max) && !math.IsInf(r.Max, 0) &&
		r.Min < r.Max
}

type Service struct {
	repo   repository.PreferenceRepository
	logger *slog.Logger
}

func NewService(repo repository.PreferenceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Current returns the stored bounds merged over the defaults. Missing,
// unreadable or corrupt storage falls back to defaults silently.
func (s *Service) Current() Ranges {
	out := Defaults()
	raw, err := s.repo.GetPreference(StorageKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("axis ranges: read failed, using defaults", "error", err)
		}
		return out
	}

	var stored map[string]struct {
		Min *float64 `json:"min"`
		Max *float64 `json:"max"`
	}
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Debug("axis ranges: corrupt value, using defaults", "error", err)
		return out
	}
	for _, m := range types.Metrics {
		entry, ok := stored[string(m.Key)]
		if !ok || entry.Min == nil || entry.Max == nil {
			continue
		}
		r := types.AxisRange{Min: *entry.Min, Max: *entry.Max}
		if valid(r) {
			out[m.Key] = r
		}
	}
	return out
}

// Set validates and stores one metric's bounds and returns the full map.
func (s *Service) Set(key types.MetricKey, lo, hi float64) (Ranges, error) {
	if _, ok := types.LookupMetric(key); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
	}
	r := types.AxisRange{Min: lo, Max: hi}
	if !valid(r) {
		return nil, ErrInvalidRange
	}
	ranges := s.Current()
	ranges[key] = r
	s.persist(ranges)
	return ranges, nil
}

// Reset stores and returns the defaults.
func (s *Service) Reset() Ranges {
	ranges := Defaults()
	s.persist(ranges)
	return ranges
}

// persist logs and ignores storage failures; the caller still gets the
// in-memory result.
func (s *Service) persist(ranges Ranges) {
	b, err := json.Marshal(ranges)
	if err != nil {
		s.logger.Warn("axis ranges: encode failed", "error", err)
		return
	}
	if err := s.repo.PutPreference(StorageKey, string(b)); err != nil {
		s.logger.Warn("axis ranges: persist failed", "error", err)
	}
}
