package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
)

const pingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready once the storage backend answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pingStorage(r.Context(), d); err != nil {
			writeJSON(w, d, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: err.Error()})
			return
		}
		writeJSON(w, d, http.StatusOK, readyzResponse{Ready: true})
	}
}

// pingStorage probes the backend; backends without a probe count as healthy.
func pingStorage(ctx context.Context, d deps.Deps) error {
	if d.Storage == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.Storage.Ping(ctx)
}
