package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	server "sunset_storefront/internal/adapters/http_server"
	"sunset_storefront/internal/adapters/observability"
	"sunset_storefront/internal/adapters/payment"
	redisad "sunset_storefront/internal/adapters/redis"
	"sunset_storefront/internal/adapters/upstream"
	"sunset_storefront/internal/app"
	"sunset_storefront/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// deps
	api, err := upstream.New(cfg.UpstreamBase, cfg.UpstreamRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("upstream client init failed")
	}
	proc, err := payment.New(cfg.ProcessorBase, cfg.ProcessorKey, 10)
	if err != nil {
		log.Fatal().Err(err).Msg("payment client init failed")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	store := app.NewCriteriaStore(cache, cfg.SessionTTL)
	engine := app.NewSearchEngine(api, cache, cfg.SearchTTL)
	catalog := app.NewCatalog(api, cache, cfg.SearchTTL)
	bookings := app.NewOrchestrator(api, proc, cfg.IntentTimeout, cfg.ConfirmTimeout, cfg.PersistTimeout)
	attempts := app.NewAttemptRegistry(cfg.SessionTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Store:    store,
		Engine:   engine,
		Catalog:  catalog,
		Bookings: bookings,
		Attempts: attempts,
		API:      api,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Str("upstream", cfg.UpstreamBase).Msg("storefront listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
