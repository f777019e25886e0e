// internal/app/features/inquiries/routes.go
package inquiries

import (
	"net/http"

	"github.com/dalemusser/swarmhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /inquiries. intakeLimit guards anonymous intake and
// may be nil.
func Routes(h *Handler, intakeLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// CREATE (public form and dashboards)
	if intakeLimit != nil {
		r.With(intakeLimit).Post("/", h.HandleCreate)
	} else {
		r.Post("/", h.HandleCreate)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeInquiry)
		pr.Get("/{id}/transition", h.ServeTransition)

		// assigned volunteers move their own inquiries forward
		pr.Post("/{id}/status", h.HandleStatus)
	})

	r.Group(func(cr chi.Router) {
		cr.Use(auth.RequireCoordinator)

		cr.Post("/{id}/claim", h.HandleClaim)
		cr.Post("/{id}/release", h.HandleRelease)
		cr.Post("/{id}/volunteer", h.HandleVolunteer)
		cr.Post("/{id}/closure-reason", h.HandleClosureReason)
		cr.Get("/{id}/history", h.ServeHistory)
	})

	return r
}
