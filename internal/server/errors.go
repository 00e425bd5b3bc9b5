package server

import "net/http"

// Error kinds returned in the "error" field of failure responses.
const (
	KindUnauthenticated = "Unauthenticated"
	KindForbidden       = "Forbidden"
	KindNotFound        = "NotFound"
	KindBadRequest      = "BadRequest"
	KindConflict        = "Conflict"
	KindUpstreamFailure = "UpstreamFailure"
)

type apiError struct {
	Status  int
	Kind    string
	Message string
}

func (e *apiError) Error() string { return e.Kind + ": " + e.Message }

func unauthenticated(msg string) *apiError {
	return &apiError{Status: http.StatusUnauthorized, Kind: KindUnauthenticated, Message: msg}
}

func forbidden(msg string) *apiError {
	return &apiError{Status: http.StatusForbidden, Kind: KindForbidden, Message: msg}
}

func notFound(msg string) *apiError {
	return &apiError{Status: http.StatusNotFound, Kind: KindNotFound, Message: msg}
}

func badRequest(msg string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Kind: KindBadRequest, Message: msg}
}

func conflict(msg string) *apiError {
	return &apiError{Status: http.StatusConflict, Kind: KindConflict, Message: msg}
}

func upstreamFailure(status int, msg string) *apiError {
	return &apiError{Status: status, Kind: KindUpstreamFailure, Message: msg}
}
