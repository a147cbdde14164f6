package engagement

import (
	"net/http"

	"github.com/CITZN/CITZN-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handlers, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(fetcher))

	r.Post("/follows", h.FollowBill)
	r.Get("/follows", h.ListFollows)
	r.Delete("/follows/{billID}", h.UnfollowBill)
	r.Post("/votes", h.CastVote)
	r.Get("/dashboard", h.Dashboard)

	return r
}
