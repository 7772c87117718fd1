package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"sensorpanorama/internal/modules/panorama/axes"
	"sensorpanorama/internal/modules/panorama/dataset"
	"sensorpanorama/internal/modules/panorama/interval"
	"sensorpanorama/internal/modules/panorama/source"
	"sensorpanorama/internal/modules/panorama/types"
)

type PanoramaController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Store is the part of the dataset the handlers need.
type Store interface {
	Snapshot() dataset.Snapshot
	Load(ctx context.Context, loader source.Loader) dataset.Status
}

// AxisService is the part of axes.Service the handlers need.
type AxisService interface {
	Current() axes.Ranges
	Set(key types.MetricKey, lo, hi float64) (axes.Ranges, error)
	Reset() axes.Ranges
}

type panoramaControllerImpl struct {
	store    Store
	loader   source.Loader
	axes     AxisService
	resolver interval.Resolver
	logger   *slog.Logger
	now      func() time.Time
}

func NewPanoramaController(store Store, loader source.Loader, axisService AxisService, resolver interval.Resolver, logger *slog.Logger) PanoramaController {
	if logger == nil {
		logger = slog.Default()
	}
	return &panoramaControllerImpl{
		store:    store,
		loader:   loader,
		axes:     axisService,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *panoramaControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleDashboard)
	mux.HandleFunc("GET /partials/kpis", c.handleKPIsPartial)
	mux.HandleFunc("GET /chart.svg", c.handleChart)
	mux.HandleFunc("GET /api/v1/series", c.handleSeries)
	mux.HandleFunc("GET /api/v1/kpis", c.handleKPIs)
	mux.HandleFunc("GET /api/v1/presets", c.handlePresets)
	mux.HandleFunc("GET /api/v1/axes", c.handleGetAxes)
	mux.HandleFunc("PUT /api/v1/axes/{metric}", c.handlePutAxis)
	mux.HandleFunc("DELETE /api/v1/axes", c.handleResetAxes)
	mux.HandleFunc("POST /api/v1/reload", c.handleReload)
}
