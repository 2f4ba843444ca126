package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
	"github.com/MrSnakeDoc/kbase/internal/logger"
)

type reloadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Reload triggers a manual seed import
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			writeJSON(w, d, http.StatusNotFound, reloadResponse{
				Status:  "disabled",
				Message: "seed import is not configured",
			})
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual seed import triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d, http.StatusAccepted, reloadResponse{
				Status:  "triggered",
				Message: "Seed import triggered",
			})
		default:
			d.Logger.Warn("seed import already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d, http.StatusTooManyRequests, reloadResponse{
				Status:  "pending",
				Message: "Seed import already pending, please wait",
			})
		}
	}
}
