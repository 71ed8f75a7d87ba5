package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"sunset_storefront/internal/adapters/observability"
	redisad "sunset_storefront/internal/adapters/redis"
	"sunset_storefront/internal/adapters/upstream"
	"sunset_storefront/internal/app"
	"sunset_storefront/internal/shared"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if len(cfg.WarmDestinations) == 0 {
		log.Warn().Msg("WARM_DESTINATIONS is empty, nothing to do")
		return
	}

	log.Info().
		Str("upstream", cfg.UpstreamBase).
		Int("workers", cfg.WarmWorkers).
		Int("destinations", len(cfg.WarmDestinations)).
		Msg("warmup starting")

	api, err := upstream.New(cfg.UpstreamBase, cfg.UpstreamRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("upstream client init failed")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	engine := app.NewSearchEngine(api, cache, cfg.SearchTTL)

	warmer := app.NewWarmer(engine, cfg.WarmWorkers)
	if err := warmer.Warm(ctx, cfg.WarmDestinations); err != nil {
		log.Fatal().Err(err).Msg("warmup failed")
	}
	log.Info().Msg("warmup completed")
}
