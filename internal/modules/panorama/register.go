package panorama

import (
	"database/sql"
	"log/slog"
	"net/http"

	"sensorpanorama/internal/modules/panorama/axes"
	"sensorpanorama/internal/modules/panorama/controller"
	"sensorpanorama/internal/modules/panorama/dataset"
	"sensorpanorama/internal/modules/panorama/interval"
	"sensorpanorama/internal/modules/panorama/repository"
	"sensorpanorama/internal/modules/panorama/source"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, store *dataset.Store, loader source.Loader, resolver interval.Resolver, logger *slog.Logger) {
	preferenceRepository := repository.NewRepository(db)
	axisService := axes.NewService(preferenceRepository, logger)
	panoramaController := controller.NewPanoramaController(store, loader, axisService, resolver, logger)
	panoramaController.RegisterRoutes(mux)
}
