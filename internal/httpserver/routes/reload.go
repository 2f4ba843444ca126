package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/kbase/internal/httpserver/deps"
	"github.com/MrSnakeDoc/kbase/internal/httpserver/handlers"
)

func init() { Register(registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	r.With(guard(d)...).Post("/reload", handlers.Reload(d))
}
