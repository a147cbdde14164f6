package district

import (
	"net/http"

	"github.com/CITZN/CITZN-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Get("/resolve/{zip}", h.GetDistrictByZip)
	r.Get("/resolve/{zip}/all", h.GetDistrictCandidates)
	r.Get("/resolve/{zip}/officials", h.GetOfficialsByZip)
	r.Get("/reverse/{chamber}/{number}", h.GetZipsByDistrict)

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminTokenMiddleware)
		r.Post("/cache/flush", h.FlushCache)
	})

	return r
}
