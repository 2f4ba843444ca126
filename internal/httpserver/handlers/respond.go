package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/kbase/internal/controller"
	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
	"github.com/MrSnakeDoc/kbase/internal/logger"
	"github.com/MrSnakeDoc/kbase/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
	Signal controller.Signal `json:"signal"`
}

func writeJSON(w http.ResponseWriter, d deps.Deps, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

// statusFor maps domain and validation errors to HTTP status codes.
func statusFor(err error) int {
	var fe validation.FieldErrors
	switch {
	case errors.As(err, &fe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownCategory), errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errInternal is what clients see in place of a storage or backend failure.
var errInternal = errors.New("internal error, see server logs")

func writeError(w http.ResponseWriter, d deps.Deps, action controller.Action, cat domain.Category, id string, err error) {
	status := statusFor(err)

	public := err
	if status == http.StatusInternalServerError {
		d.Logger.Error("catalog request failed",
			logger.String("action", string(action)),
			logger.Error(err))
		public = errInternal
	}

	resp := errorResponse{
		Error:  public.Error(),
		Signal: controller.OutcomeSignal(action, cat, id, public),
	}
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		resp.Errors = fe
	}

	writeJSON(w, d, status, resp)
}

var errBadRequest = errors.New("malformed request body")

func decodeInput(w http.ResponseWriter, r *http.Request) (validation.EntryInput, error) {
	var in validation.EntryInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		return in, errors.Join(errBadRequest, err)
	}
	return in.Validate()
}
