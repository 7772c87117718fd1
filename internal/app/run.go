package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"sensorpanorama/internal/config"
	"sensorpanorama/internal/db"
	"sensorpanorama/internal/httpapi"
	"sensorpanorama/internal/migrate"
	"sensorpanorama/internal/modules/panorama"
	"sensorpanorama/internal/modules/panorama/dataset"
	"sensorpanorama/internal/modules/panorama/interval"
	"sensorpanorama/internal/modules/panorama/source"
	"sensorpanorama/internal/modules/panorama/views"
	"sensorpanorama/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"corsOrigins", cfg.CORSOrigins,
		"dataSource", cfg.DataSource,
		"dataTimeout", cfg.DataTimeout,
		"timezone", cfg.Location.String(),
		"weekStart", cfg.WeekStart.String(),
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"mqttBroker", cfg.MQTTBroker,
		"mqttTopic", cfg.MQTTTopic,
	)

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if _, err := migrate.Run(ctx, dbConn, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	store := dataset.NewStore(cfg.Location, logger)
	loader := source.New(cfg.DataSource, cfg.DataTimeout)
	store.Load(ctx, loader)

	var subscriber *mqtt.Subscriber
	if cfg.MQTTBroker != "" {
		subscriber = mqtt.NewSubscriber(cfg, store.Append, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err := subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without live data)", "error", err)
		}
	}

	resolver := interval.NewResolver(cfg.Location, cfg.WeekStart)
	mux := httpapi.NewMux(dbConn, store, logger)
	panorama.RegisterFeature(mux, dbConn, store, loader, resolver, logger)

	srv := httpapi.NewServer(cfg, mux, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		logger.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
