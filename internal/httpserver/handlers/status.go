package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
)

type componentStatus struct {
	OK       bool   `json:"ok"`
	Backend  string `json:"backend,omitempty"`
	Entries  *int   `json:"entries,omitempty"`
	LastSync string `json:"last_sync,omitempty"`
	Imported *int   `json:"imported,omitempty"`
	Error    string `json:"error,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Status reports storage reachability, catalog size and the seed importer state.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"storage": storageStatus(r, d),
			"catalog": catalogStatus(d),
		}
		if d.Seed != nil {
			components["seed"] = seedStatus(d)
		}

		writeJSON(w, d, http.StatusOK, statusResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode is "degraded" when storage is unreachable, since writes will fail.
func determineMode(components map[string]componentStatus) string {
	if storage, ok := components["storage"]; ok && !storage.OK {
		return "degraded"
	}
	return "ok"
}

func storageStatus(r *http.Request, d deps.Deps) componentStatus {
	if err := pingStorage(r.Context(), d); err != nil {
		return componentStatus{OK: false, Backend: d.Backend, Error: err.Error()}
	}
	return componentStatus{OK: true, Backend: d.Backend}
}

func catalogStatus(d deps.Deps) componentStatus {
	total := 0
	for _, n := range d.Controller.Counts() {
		total += n
	}
	return componentStatus{
		OK:       true,
		Entries:  &total,
		LastSync: formatTime(d.Controller.LastSync()),
	}
}

func seedStatus(d deps.Deps) componentStatus {
	lastRun, lastErr, imported := d.Seed.Status()
	s := componentStatus{
		OK:       lastErr == nil,
		LastSync: formatTime(lastRun),
		Imported: &imported,
	}
	if lastErr != nil {
		s.Error = lastErr.Error()
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
