// @title                       Auction API
// @version                     1.0
// @description                 Verified-bidder, ascending-price, time-boxed auctions.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"

	"github.com/zyborn/auction-api/internal/api"
	"github.com/zyborn/auction-api/internal/api/handler"
	"github.com/zyborn/auction-api/internal/api/metrics"
	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
	"github.com/zyborn/auction-api/internal/core/service"
	"github.com/zyborn/auction-api/internal/infrastructure/config"
	"github.com/zyborn/auction-api/internal/infrastructure/db/mongo"
	"github.com/zyborn/auction-api/internal/infrastructure/db/postgres"
	"github.com/zyborn/auction-api/internal/infrastructure/db/redis"
	"github.com/zyborn/auction-api/internal/infrastructure/queue"
	"github.com/zyborn/auction-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// repositories is the store-specific half of the object graph.
type repositories struct {
	items         ports.ItemRepository
	bids          ports.BidRepository
	users         ports.UserRepository
	verifications ports.VerificationRepository
	tx            ports.Transactor
	check         handler.Check
	close         func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "auction-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server exited")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	repos, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.close()

	checks := map[string]handler.Check{cfg.StoreDriver: repos.check}

	g, gctx := errgroup.WithContext(ctx)

	// --- Event bus ---
	dispatcher := queue.NewDispatcher(cfg.Auction.DispatcherWorkers, logger.Component("dispatcher"))
	dispatcher.Start(gctx)

	var bus ports.EventBus = dispatcher
	if cfg.EventBus == config.BusRedis {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()

		redisBus := redis.NewBus(rdb, cfg.Redis.Channel, dispatcher, logger.Component("event_relay"))
		bus = redisBus
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		g.Go(func() error { return redisBus.Run(gctx) })
	}

	// --- Core services ---
	clock := service.SystemClock{}
	retry := service.RetryPolicy{Attempts: cfg.Auction.ReadRetries, Backoff: cfg.Auction.ReadRetryBackoff}

	ledger := service.NewLedger(repos.items, repos.bids, bus, retry, logger.Component("ledger"))
	gate := service.NewApprovalGate(repos.users, retry)
	bids := service.NewBidService(ledger, gate, service.NewAuctionClock(clock), cfg.Auction.Increments.IncrementSet, logger.Component("bids"))
	items := service.NewItemService(repos.items, clock, logger.Component("items"))
	auth := service.NewAuthService(repos.users, cfg.JWTSecret, cfg.TokenTTL, cfg.AdminEmails)
	verifications := service.NewVerificationService(
		repos.verifications, repos.users, repos.tx, bus, clock,
		service.VerificationConfig{DOBMinYear: cfg.Auction.DOBMinYear, DOBMaxYear: cfg.Auction.DOBMaxYear},
		logger.Component("verification"),
	)

	eventLog := logger.Component("events")
	unsubscribeBids := ledger.Subscribe(func(_ context.Context, e domain.Event) {
		if e.Bid == nil {
			return
		}
		eventLog.Debug().Str("item_id", e.Key).Int64("seq", e.Bid.Seq).Str("amount", e.Bid.Amount.String()).Msg("bid placed")
	})
	defer unsubscribeBids()

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Auth:          auth,
		Bids:          bids,
		Items:         items,
		Verifications: verifications,
		Clock:         clock,
		Checks:        checks,
		JWTSecret:     cfg.JWTSecret,
		Logger:        logger.Component("http"),
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Str("bus", cfg.EventBus).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Auction.ReconcileInterval > 0 {
		g.Go(func() error {
			reconcileLoop(gctx, verifications, cfg.Auction.ReconcileInterval, logger.Component("reconciler"))
			return nil
		})
	}

	return g.Wait()
}

// reconcileLoop periodically repairs approval flags left by partial reviews.
func reconcileLoop(ctx context.Context, svc *service.VerificationService, every time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.Reconcile(ctx)
			metrics.ApprovalsReconciledTotal.Add(float64(n))
			if err != nil {
				log.Error().Err(err).Int("reconciled", n).Msg("reconciliation failed")
				continue
			}
			if n > 0 {
				log.Warn().Int("reconciled", n).Msg("approval flags reconciled")
			}
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*repositories, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		if cfg.Postgres.Migrate {
			if err := postgres.MigrateUp(cfg.Postgres.URL); err != nil {
				return nil, err
			}
			log.Info().Msg("postgres migrations applied")
		}
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
		if err != nil {
			return nil, err
		}
		return &repositories{
			items:         postgres.NewItemRepository(pool),
			bids:          postgres.NewBidRepository(pool),
			users:         postgres.NewUserRepository(pool),
			verifications: postgres.NewVerificationRepository(pool),
			tx:            postgres.NewTransactor(pool),
			check:         func(ctx context.Context) error { return pool.Ping(ctx) },
			close:         pool.Close,
		}, nil

	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if !cfg.Mongo.Transactions {
			log.Warn().Msg("mongo transactions disabled, reviews fall back to reconciliation")
		}
		return &repositories{
			items:         mongo.NewItemRepository(db),
			bids:          mongo.NewBidRepository(db),
			users:         mongo.NewUserRepository(db),
			verifications: mongo.NewVerificationRepository(db),
			tx:            mongo.NewTransactor(client, cfg.Mongo.Transactions),
			check: func(ctx context.Context) error {
				return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
			},
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = client.Disconnect(ctx)
			},
		}, nil
	}
}
