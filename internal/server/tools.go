package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"powertools/internal/events"
	"powertools/internal/shared"
	"powertools/internal/store"
)

func (a *API) ListTools(w http.ResponseWriter, r *http.Request) {
	tools := []shared.Tool{}
	if err := a.Store.Find(r.Context(), store.Tools, nil, &tools); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

func (a *API) GetTool(w http.ResponseWriter, r *http.Request) {
	var tool shared.Tool
	if err := a.Store.FindOne(r.Context(), store.Tools, store.ByID(chi.URLParam(r, "id")), &tool); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

func (a *API) CreateTool(w http.ResponseWriter, r *http.Request) {
	var tool shared.Tool
	if err := decodeJSON(r, &tool); err != nil {
		a.fail(w, r, err)
		return
	}
	tool.ID = ""

	res, err := a.Store.Insert(r.Context(), store.Tools, tool)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.publish(r, events.ToolCreated, res.InsertedID, tool)
	writeJSON(w, http.StatusOK, res)
}

// UpdateToolAvailability upserts the available quantity and nothing else.
// A missing id creates a document holding only that field.
func (a *API) UpdateToolAvailability(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		a.fail(w, r, badRequest("bad body"))
		return
	}
	set, err := toolAvailabilityFields.decode(body)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if _, ok := set["available"]; !ok {
		a.fail(w, r, badRequest("missing available"))
		return
	}

	res, err := a.Store.Update(r.Context(), store.Tools, store.ByID(chi.URLParam(r, "id")), set, true)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) DeleteTool(w http.ResponseWriter, r *http.Request) {
	res, err := a.Store.Delete(r.Context(), store.Tools, store.ByID(chi.URLParam(r, "id")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
