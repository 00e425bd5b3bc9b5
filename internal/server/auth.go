package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"powertools/internal/shared"
	"powertools/internal/store"
)

type ctxCallerKey struct{}

// CallerEmail returns the verified email attached by RequireAuth.
func CallerEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(ctxCallerKey{}).(string)
	return email, ok && email != ""
}

func withCaller(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxCallerKey{}, email)
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticate verifies the Authorization header. A missing header is
// Unauthenticated; any header that does not carry a valid bearer token is
// Forbidden.
func (a *API) authenticate(r *http.Request) (string, error) {
	if r.Header.Get("Authorization") == "" {
		return "", unauthenticated("unauthorized access")
	}
	token, ok := bearerToken(r)
	if !ok {
		log.Debug().Str("request_id", chimw.GetReqID(r.Context())).Msg("auth: malformed authorization header")
		return "", forbidden("forbidden access")
	}
	email, err := a.Tokens.Verify(token)
	if err != nil {
		log.Debug().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Msg("auth: token rejected")
		return "", forbidden("forbidden access")
	}
	return email, nil
}

// RequireAuth rejects requests without a credential (401) or with one that
// does not verify (403), and otherwise attaches the caller email.
func (a *API) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := a.authenticate(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), email)))
	})
}

// OptionalAuth lets anonymous requests through but verifies a credential
// when one is sent, so handlers can owner-check the caller.
func (a *API) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		email, err := a.authenticate(r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), email)))
	})
}

// Policy decides whether an authenticated caller may continue. It returns
// nil to allow, an *apiError to deny, or any other error for a failed
// lookup.
type Policy func(r *http.Request, caller string) error

// IsSelf allows the caller only when param(r) names the caller's own email.
func IsSelf(param func(*http.Request) string) Policy {
	return func(r *http.Request, caller string) error {
		if param(r) != caller {
			return forbidden("forbidden access")
		}
		return nil
	}
}

// IsAdmin allows callers whose profile carries the admin role.
func IsAdmin(s store.Store) Policy {
	return func(r *http.Request, caller string) error {
		var profile shared.UserProfile
		err := s.FindOne(r.Context(), store.Users, store.ByEmail(caller), &profile)
		if errors.Is(err, store.ErrNotFound) {
			return forbidden("forbidden")
		}
		if err != nil {
			return err
		}
		if !profile.IsAdmin() {
			return forbidden("forbidden")
		}
		return nil
	}
}

// Guard runs policies in order after RequireAuth; the first denial wins.
func (a *API) Guard(policies ...Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerEmail(r.Context())
			if !ok {
				a.fail(w, r, unauthenticated("unauthorized access"))
				return
			}
			for _, p := range policies {
				if err := p(r, caller); err != nil {
					a.fail(w, r, err)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin must run after RequireAuth. It costs one store read.
func (a *API) RequireAdmin(next http.Handler) http.Handler {
	return a.Guard(IsAdmin(a.Store))(next)
}

func QueryParam(name string) func(*http.Request) string {
	return func(r *http.Request) string { return r.URL.Query().Get(name) }
}

func PathParam(name string) func(*http.Request) string {
	return func(r *http.Request) string { return chi.URLParam(r, name) }
}

// checkOwner denies an authenticated caller acting for another email.
// Anonymous requests, allowed under the public mutation policy, pass.
func checkOwner(ctx context.Context, owner string) error {
	caller, ok := CallerEmail(ctx)
	if ok && caller != owner {
		return forbidden("forbidden access")
	}
	return nil
}
