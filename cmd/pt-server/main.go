package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"powertools/internal/events"
	"powertools/internal/payment"
	"powertools/internal/server"
	"powertools/internal/shared"
	"powertools/internal/store"
)

func main() {
	cfg, err := shared.LoadServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.With().Str("service", "pt-server").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	st, err := store.Open(openCtx, cfg.StoreDriver, cfg.StoreURI, cfg.StoreDatabase)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.EventsQueue)
		if err != nil {
			log.Fatal().Err(err).Msg("dial amqp")
		}
		publisher = p
	}

	var payments payment.Provider = payment.Unconfigured{}
	if cfg.StripeKey != "" {
		payments = payment.NewStripeProvider(cfg.StripeKey)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set; payment intents will fail")
	}

	api := &server.API{
		Store:          st,
		Tokens:         shared.NewTokenService(cfg.TokenSecret, cfg.TokenTTL),
		Events:         publisher,
		Payments:       payments,
		MutationPolicy: cfg.MutationPolicy,
		Currency:       "usd",
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewRouter(api, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().
		Str("addr", cfg.Addr).
		Str("store", cfg.StoreDriver).
		Str("mutation_policy", cfg.MutationPolicy).
		Bool("events", cfg.AMQPURL != "").
		Msg("pt-server listening")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("listen")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Close(closeCtx); err != nil {
		log.Error().Err(err).Msg("close store")
	}
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("close publisher")
	}
	log.Info().Msg("pt-server stopped")
}
