package server

import (
	"net/http"

	"powertools/internal/shared"
	"powertools/internal/store"
)

func (a *API) CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	var s shared.Suggestion
	if err := decodeJSON(r, &s); err != nil {
		a.fail(w, r, err)
		return
	}
	s.ID = ""
	res, err := a.Store.Insert(r.Context(), store.Suggestions, s)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
