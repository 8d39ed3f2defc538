package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"scentshop/internal/adapters/feed"
	"scentshop/internal/adapters/observability"
	redisad "scentshop/internal/adapters/redis"
	"scentshop/internal/app"
	"scentshop/internal/domain"
	"scentshop/internal/seeddata"
	"scentshop/internal/shared"
	"scentshop/internal/storage"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

// run seeds the configured store and returns once every product has been
// attempted. Connections are closed before it returns.
func run(ctx context.Context, cfg shared.Config) error {
	log.Info().
		Str("driver", cfg.StoreDriver).
		Str("feed", feedName(cfg)).
		Int("workers", cfg.SeedWorkers).
		Bool("reset", cfg.SeedReset).
		Msg("seed starting")

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	if cfg.SeedReset {
		if err := store.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		log.Info().Msg("cleared existing products and reviews")
	}

	var src domain.CatalogFeed
	if cfg.SeedFeedURL != "" {
		src, err = feed.New(cfg.SeedFeedURL, cfg.SeedFeedKey, cfg.FeedRPS)
	} else {
		src, err = seeddata.Default()
	}
	if err != nil {
		return fmt.Errorf("init catalog feed: %w", err)
	}

	var cache domain.Cache
	if cfg.CacheEnabled() {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}
	ratings := app.NewReviewService(store, store, cache, cfg.CacheTTL())
	seed := app.NewSeedService(src, store, store, ratings, cache)

	products, err := seed.Products(ctx)
	if err != nil {
		return err
	}

	sem := semaphore.NewWeighted(int64(max(cfg.SeedWorkers, 1)))
	var wg sync.WaitGroup
	var seeded, reviews, failed atomic.Int64

	var acquireErr error
	for _, p := range products {
		// acquire before launching the goroutine; release inside it
		if acquireErr = sem.Acquire(ctx, 1); acquireErr != nil {
			break
		}

		wg.Add(1)
		go func(p domain.Product) {
			defer wg.Done()
			defer sem.Release(1)

			n, err := seed.SeedProduct(ctx, p)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("slug", p.Slug).Err(err).Msg("seed failed")
				return
			}
			seeded.Add(1)
			reviews.Add(int64(n))
			log.Info().Str("slug", p.Slug).Int("reviews", n).Msg("seed ok")
		}(p)
	}

	wg.Wait()
	log.Info().
		Int64("products", seeded.Load()).
		Int64("reviews", reviews.Load()).
		Int64("failed", failed.Load()).
		Msg("seed completed")
	if acquireErr != nil {
		return fmt.Errorf("seed interrupted: %w", acquireErr)
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d products failed to seed", n, len(products))
	}
	return nil
}

func feedName(cfg shared.Config) string {
	if cfg.SeedFeedURL != "" {
		return cfg.SeedFeedURL
	}
	return "embedded"
}
