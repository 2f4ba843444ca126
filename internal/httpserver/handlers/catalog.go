package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
)

type categoryInfo struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// Categories lists the four categories with their blurb and entry count.
func Categories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := d.Controller.Counts()
		out := make([]categoryInfo, 0, len(domain.Categories))
		for _, cat := range domain.Categories {
			out = append(out, categoryInfo{
				Label:       cat.String(),
				Description: cat.Description(),
				Count:       counts[cat],
			})
		}
		writeJSON(w, d, http.StatusOK, out)
	}
}

// Catalog returns the whole mirrored catalog in its persisted shape.
func Catalog(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d, http.StatusOK, d.Controller.Catalog())
	}
}
