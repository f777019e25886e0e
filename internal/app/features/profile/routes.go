// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/swarmhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Get("/activity", h.ServeActivity)
	r.Post("/name", h.HandleRename)
	r.Post("/password", h.HandleChangePassword)
	return r
}
