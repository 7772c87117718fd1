package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"
)

func NewMux(db *sql.DB, data StatusSource, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, data, logger)
	return mux
}
