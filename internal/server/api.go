package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"powertools/internal/events"
	"powertools/internal/payment"
	"powertools/internal/shared"
	"powertools/internal/store"
)

type API struct {
	Store    store.Store
	Tokens   *shared.TokenService
	Events   events.Publisher
	Payments payment.Provider
	// MutationPolicy is shared.MutationPolicyPublic or
	// shared.MutationPolicyAuthenticated.
	MutationPolicy string
	Currency       string
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, 2<<20))
}

// decodeJSON reads exactly one JSON object into v, rejecting fields v
// does not declare, and then checks v's validate tags.
func decodeJSON(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return badRequest("bad body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("bad json: " + err.Error())
	}
	if err := expectEOF(dec); err != nil {
		return err
	}
	return validateRequest(v)
}

func expectEOF(dec *json.Decoder) error {
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return badRequest("bad json: trailing data after body")
	}
	return nil
}

// fail writes err as a JSON error response. Errors that are not part of
// the API taxonomy are store failures.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
	case errors.Is(err, store.ErrNotFound):
		ae = notFound("not found")
	case errors.Is(err, store.ErrInvalidID):
		ae = badRequest("invalid id")
	default:
		ae = upstreamFailure(http.StatusInternalServerError, "db error")
	}
	if ae.Status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeJSON(w, ae.Status, shared.ErrorResponse{Error: ae.Kind, Message: ae.Message})
}

// publish emits a domain event; failures are logged, never returned.
func (a *API) publish(r *http.Request, typ, subject string, data any) {
	if a.Events == nil {
		return
	}
	actor, _ := CallerEmail(r.Context())
	e := events.Event{Type: typ, Subject: subject, Actor: actor, Data: data}
	if err := a.Events.Publish(r.Context(), e); err != nil {
		log.Warn().Err(err).
			Str("event", typ).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("publish event")
	}
}

func (a *API) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("initial success"))
}
