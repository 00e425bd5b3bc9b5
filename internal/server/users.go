package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"powertools/internal/events"
	"powertools/internal/shared"
	"powertools/internal/store"
)

// UpsertProfile writes the self-service profile fields for ?email= and
// returns a fresh identity token for that email.
func (a *API) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		a.fail(w, r, badRequest("missing email"))
		return
	}
	body, err := readBody(r)
	if err != nil {
		a.fail(w, r, badRequest("bad body"))
		return
	}
	set, err := profileFields.decode(body)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if e, ok := set["email"]; ok && e != email {
		a.fail(w, r, badRequest("email does not match query"))
		return
	}
	set["email"] = email

	res, err := a.Store.Update(r.Context(), store.Users, store.ByEmail(email), set, true)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	token, err := a.Tokens.Issue(email)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.UpsertProfileResponse{Result: res, Token: token})
}

// GetOwnProfile runs behind Guard(IsSelf(QueryParam("email"))).
func (a *API) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerEmail(r.Context())
	users := []shared.UserProfile{}
	if err := a.Store.Find(r.Context(), store.Users, store.ByEmail(caller), &users); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) ListProfiles(w http.ResponseWriter, r *http.Request) {
	users := []shared.UserProfile{}
	if err := a.Store.Find(r.Context(), store.Users, nil, &users); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// PromoteAdmin runs behind RequireAdmin. It never creates a profile.
func (a *API) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "email")
	res, err := a.Store.Update(r.Context(), store.Users, store.ByEmail(target),
		map[string]any{"role": shared.RoleAdmin}, false)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if res.MatchedCount == 0 {
		a.fail(w, r, notFound("profile not found"))
		return
	}
	a.publish(r, events.UserPromoted, target, nil)
	writeJSON(w, http.StatusOK, res)
}

func (a *API) AdminStatus(w http.ResponseWriter, r *http.Request) {
	var profile shared.UserProfile
	err := a.Store.FindOne(r.Context(), store.Users, store.ByEmail(chi.URLParam(r, "email")), &profile)
	if errors.Is(err, store.ErrNotFound) {
		a.fail(w, r, notFound("profile not found"))
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared.AdminStatusResponse{Admin: profile.IsAdmin()})
}
