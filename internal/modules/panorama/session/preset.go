package session

import (
	"time"

	"sensorpanorama/internal/modules/panorama/interval"
	"sensorpanorama/internal/modules/panorama/types"
)

// Preset is a quick pick: a named mode and anchor relative to now.
type Preset struct {
	Key    string     `json:"key"`
	Label  string     `json:"label"`
	Mode   types.Mode `json:"mode"`
	Anchor time.Time  `json:"anchor"`
}

// Presets returns the quick picks for the given instant.
func Presets(r interval.Resolver, now time.Time) []Preset {
	now = now.In(r.Loc())
	return []Preset{
		{Key: "today", Label: "Heute", Mode: types.ModeDay, Anchor: r.Floor(types.ModeDay, now)},
		{Key: "yesterday", Label: "Gestern", Mode: types.ModeDay, Anchor: r.Floor(types.ModeDay, now.AddDate(0, 0, -1))},
		{Key: "this-week", Label: "Diese Woche", Mode: types.ModeWeek, Anchor: r.Floor(types.ModeWeek, now)},
		{Key: "last-week", Label: "Letzte Woche", Mode: types.ModeWeek, Anchor: r.Floor(types.ModeWeek, now.AddDate(0, 0, -7))},
		{Key: "this-month", Label: "Dieser Monat", Mode: types.ModeMonth, Anchor: r.Floor(types.ModeMonth, now)},
		{Key: "this-year", Label: "Dieses Jahr", Mode: types.ModeYear, Anchor: r.Floor(types.ModeYear, now)},
	}
}

// FindPreset looks a preset up by key.
func FindPreset(presets []Preset, key string) (Preset, bool) {
	for _, p := range presets {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}
