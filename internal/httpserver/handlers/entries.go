package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/kbase/internal/controller"
	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
)

type entryResponse struct {
	Entry  domain.Entry      `json:"entry"`
	Signal controller.Signal `json:"signal"`
}

type signalResponse struct {
	Signal controller.Signal `json:"signal"`
}

func categoryParam(r *http.Request) (domain.Category, error) {
	return domain.ParseCategory(chi.URLParam(r, "category"))
}

// ListEntries returns the entries of one category in insertion order.
func ListEntries(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := categoryParam(r)
		if err != nil {
			writeError(w, d, "list", cat, "", err)
			return
		}
		writeJSON(w, d, http.StatusOK, d.Controller.Entries(cat))
	}
}

// GetEntry returns one entry.
func GetEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		cat, err := categoryParam(r)
		if err != nil {
			writeError(w, d, "get", cat, id, err)
			return
		}
		e, ok := d.Controller.Entry(cat, id)
		if !ok {
			writeError(w, d, "get", cat, id, domain.ErrEntryNotFound)
			return
		}
		writeJSON(w, d, http.StatusOK, e)
	}
}

// CreateEntry validates the form and appends a new entry.
func CreateEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := categoryParam(r)
		if err != nil {
			writeError(w, d, controller.ActionAdd, cat, "", err)
			return
		}
		in, err := decodeInput(w, r)
		if err != nil {
			writeError(w, d, controller.ActionAdd, cat, "", err)
			return
		}

		e, err := d.Controller.Add(r.Context(), cat, in.Entry(""))
		if err != nil {
			writeError(w, d, controller.ActionAdd, cat, e.ID, err)
			return
		}
		writeJSON(w, d, http.StatusCreated, entryResponse{
			Entry:  e,
			Signal: controller.OutcomeSignal(controller.ActionAdd, cat, e.ID, nil),
		})
	}
}

// UpdateEntry validates the form and replaces the entry in place.
func UpdateEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		cat, err := categoryParam(r)
		if err != nil {
			writeError(w, d, controller.ActionUpdate, cat, id, err)
			return
		}
		in, err := decodeInput(w, r)
		if err != nil {
			writeError(w, d, controller.ActionUpdate, cat, id, err)
			return
		}

		e, err := d.Controller.Update(r.Context(), cat, in.Entry(id))
		if err != nil {
			writeError(w, d, controller.ActionUpdate, cat, id, err)
			return
		}
		writeJSON(w, d, http.StatusOK, entryResponse{
			Entry:  e,
			Signal: controller.OutcomeSignal(controller.ActionUpdate, cat, id, nil),
		})
	}
}

// DeleteEntry removes the entry.
func DeleteEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		cat, err := categoryParam(r)
		if err != nil {
			writeError(w, d, controller.ActionDelete, cat, id, err)
			return
		}

		if err := d.Controller.Delete(r.Context(), cat, id); err != nil {
			writeError(w, d, controller.ActionDelete, cat, id, err)
			return
		}
		writeJSON(w, d, http.StatusOK, signalResponse{
			Signal: controller.OutcomeSignal(controller.ActionDelete, cat, id, nil),
		})
	}
}
