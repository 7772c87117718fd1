package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"sensorpanorama/internal/config"
)

// New builds the process logger: colourised tint output for dev builds,
// JSON for release builds. w defaults to stdout.
//
// Reading timestamps passed as attributes are rendered in the dashboard's
// location, so log lines match what the UI shows.
func New(cfg config.Config, version string, appName string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	replace := localTimes(cfg.Location)

	if version == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:       cfg.LogLevel,
			AddSource:   true,
			TimeFormat:  time.Kitchen,
			NoColor:     cfg.AppEnv == "prod",
			ReplaceAttr: replace,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: replace,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}

func localTimes(loc *time.Location) func([]string, slog.Attr) slog.Attr {
	if loc == nil {
		return nil
	}
	return func(groups []string, a slog.Attr) slog.Attr {
		// The record time stays untouched.
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return a
		}
		if a.Value.Kind() == slog.KindTime {
			return slog.String(a.Key, a.Value.Time().In(loc).Format(time.RFC3339))
		}
		return a
	}
}
