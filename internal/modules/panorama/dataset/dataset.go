// Package dataset keeps the currently loaded reading set and its load status.
package dataset

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"sensorpanorama/internal/modules/panorama/parser"
	"sensorpanorama/internal/modules/panorama/source"
	"sensorpanorama/internal/modules/panorama/types"
)

// UnavailableMessage is shown when the source text could not be obtained.
const UnavailableMessage = "Daten konnten nicht geladen werden. Starte lokalen Server oder synchronisiere die Datei neu."

// Status describes the outcome of the last load.
type Status struct {
	OK       bool      `json:"ok"`
	Message  string    `json:"message,omitempty"`
	LoadedAt time.Time `json:"loadedAt"`
	Count    int       `json:"count"`
	Skipped  int       `json:"skipped"`
}

// Snapshot is a consistent copy of the store.
type Snapshot struct {
	Readings []types.Reading
	Status   Status
}

type Store struct {
	mu       sync.RWMutex
	readings []types.Reading
	status   Status
	loc      *time.Location
	logger   *slog.Logger
}

func NewStore(loc *time.Location, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		readings: []types.Reading{},
		loc:      loc,
		logger:   logger,
	}
}

// Load replaces the reading set with the parsed source text. A loader
// failure leaves an empty set and an unavailable status; it is not returned
// as an error because the dashboard keeps working without data.
func (s *Store) Load(ctx context.Context, loader source.Loader) Status {
	content, err := loader.Load(ctx)
	now := time.Now()
	if err != nil {
		s.logger.Error("sensor data unavailable", "source", loader.String(), "error", err)
		st := Status{OK: false, Message: UnavailableMessage, LoadedAt: now}
		s.replace([]types.Reading{}, st)
		return st
	}

	res := parser.Parse(content, s.loc)
	s.logger.Info("sensor data loaded",
		"source", loader.String(),
		"readings", len(res.Readings),
		"skipped", res.Skipped,
	)
	st := Status{OK: true, LoadedAt: now, Count: len(res.Readings), Skipped: res.Skipped}
	s.replace(res.Readings, st)
	return st
}

func (s *Store) replace(readings []types.Reading, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = readings
	s.status = st
}

// Append inserts r keeping the set sorted by timestamp.
func (s *Store) Append(r types.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := sort.Search(len(s.readings), func(i int) bool {
		return s.readings[i].Timestamp.After(r.Timestamp)
	})
	s.readings = append(s.readings, types.Reading{})
	copy(s.readings[i+1:], s.readings[i:])
	s.readings[i] = r
	s.status.Count = len(s.readings)
}

// Snapshot returns a copy safe to use without holding the lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Reading, len(s.readings))
	copy(out, s.readings)
	return Snapshot{Readings: out, Status: s.status}
}

// Healthy reports whether the last load succeeded. A store that was never
// loaded is healthy.
func (s *Store) Healthy() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status.LoadedAt.IsZero() || s.status.OK {
		return true, ""
	}
	return false, s.status.Message
}
