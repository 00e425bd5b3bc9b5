package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"powertools/internal/shared"
)

// NewRouter binds every route to its handler chain.
func NewRouter(a *API, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(15 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	authed := r.With(a.RequireAuth)
	admin := r.With(a.RequireAuth, a.RequireAdmin)
	mutate := r.With(a.mutationGate(false)...)
	mutateAdmin := r.With(a.mutationGate(true)...)

	r.Get("/", a.Root)

	r.Get("/tools", a.ListTools)
	r.Get("/tools/{id}", a.GetTool)
	admin.Post("/tools", a.CreateTool)
	admin.Delete("/tools/{id}", a.DeleteTool)
	mutateAdmin.Put("/tools/{id}", a.UpdateToolAvailability)

	mutate.Post("/orders", a.CreateOrder)
	mutate.Delete("/orders/{id}", a.CancelOrder)
	authed.With(a.Guard(IsSelf(QueryParam("email")))).Get("/orders", a.ListOrders)
	authed.Get("/orders/{id}", a.GetOrder)
	authed.Patch("/orders/{id}", a.ConfirmPayment)
	authed.Post("/create-payment-intent", a.CreatePaymentIntent)

	mutate.Post("/reviews", a.CreateReview)
	r.Get("/reviews", a.ListReviews)
	r.Get("/userReviews", a.ListUserReviews)

	r.Put("/users", a.UpsertProfile)
	authed.With(a.Guard(IsSelf(QueryParam("email")))).Get("/users", a.GetOwnProfile)
	r.Get("/user", a.ListProfiles)
	admin.Put("/user/admin/{email}", a.PromoteAdmin)
	r.Get("/admin/{email}", a.AdminStatus)

	r.Post("/suggestions", a.CreateSuggestion)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, shared.ErrorResponse{Error: KindNotFound, Message: "no route for " + r.URL.Path})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, shared.ErrorResponse{Error: "MethodNotAllowed", Message: "method not allowed"})
	})

	return r
}

// mutationGate is the middleware for state-changing routes that the
// public policy leaves open to anonymous callers. A token sent under the
// public policy is still verified. adminOnly routes need the admin role
// once the policy is tightened.
func (a *API) mutationGate(adminOnly bool) []func(http.Handler) http.Handler {
	if a.MutationPolicy != shared.MutationPolicyAuthenticated {
		return []func(http.Handler) http.Handler{a.OptionalAuth}
	}
	if adminOnly {
		return []func(http.Handler) http.Handler{a.RequireAuth, a.RequireAdmin}
	}
	return []func(http.Handler) http.Handler{a.RequireAuth}
}
