package server

import (
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"powertools/internal/payment"
	"powertools/internal/shared"
)

func (a *API) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req shared.PaymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}

	provider := a.Payments
	if provider == nil {
		provider = payment.Unconfigured{}
	}
	currency := a.Currency
	if currency == "" {
		currency = "usd"
	}

	secret, err := provider.CreateIntent(r.Context(), payment.ToMinorUnits(req.Price), currency)
	if err != nil {
		log.Error().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Bool("configured", !errors.Is(err, payment.ErrNotConfigured)).
			Msg("payment intent")
		a.fail(w, r, upstreamFailure(http.StatusBadGateway, "payment provider error"))
		return
	}
	writeJSON(w, http.StatusOK, shared.PaymentIntentResponse{ClientSecret: secret})
}
