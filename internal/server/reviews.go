package server

import (
	"net/http"

	"powertools/internal/shared"
	"powertools/internal/store"
)

func (a *API) CreateReview(w http.ResponseWriter, r *http.Request) {
	var review shared.Review
	if err := decodeJSON(r, &review); err != nil {
		a.fail(w, r, err)
		return
	}
	review.ID = ""
	if err := checkOwner(r.Context(), review.Email); err != nil {
		a.fail(w, r, err)
		return
	}

	res, err := a.Store.Insert(r.Context(), store.Reviews, review)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews := []shared.Review{}
	if err := a.Store.Find(r.Context(), store.Reviews, nil, &reviews); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// ListUserReviews is public: reviews are not private to their author.
func (a *API) ListUserReviews(w http.ResponseWriter, r *http.Request) {
	reviews := []shared.Review{}
	email := r.URL.Query().Get("email")
	if err := a.Store.Find(r.Context(), store.Reviews, store.ByEmail(email), &reviews); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
