// Command marketplace-shell runs the marketplace client core behind a local
// HTTP shell that a presentation layer drives.
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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/agriconnect/marketplace-client/internal/api"
	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
	"github.com/agriconnect/marketplace-client/internal/core/service"
	"github.com/agriconnect/marketplace-client/internal/infrastructure/config"
	"github.com/agriconnect/marketplace-client/internal/infrastructure/db/memory"
	mongostore "github.com/agriconnect/marketplace-client/internal/infrastructure/db/mongo"
	redisstore "github.com/agriconnect/marketplace-client/internal/infrastructure/db/redis"
	"github.com/agriconnect/marketplace-client/internal/infrastructure/gateway"
	"github.com/agriconnect/marketplace-client/internal/infrastructure/http/handlers"
	"github.com/agriconnect/marketplace-client/internal/infrastructure/notify"
	"github.com/agriconnect/marketplace-client/internal/infrastructure/queue"
	"github.com/agriconnect/marketplace-client/pkg/logger"
)

// sessionStore is the persisted key-value store plus its readiness check.
type sessionStore interface {
	ports.KeyValueStore
	handlers.Pinger
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "marketplace-shell",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("could not open session store")
	}
	defer closeStore()

	client := gateway.New(cfg.API.BaseURL, store,
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithLogger(logger.Component(log, "gateway")),
	)

	inbox := notify.NewInbox(notify.DefaultCapacity, logger.Component(log, "notify"))
	cart := service.NewCartStore(client, inbox, logger.Component(log, "cart"))
	orders := service.NewOrderTracker(client, inbox, logger.Component(log, "orders"))
	sessions := service.NewSessionService(client, logger.Component(log, "session"))
	nav := service.NewNavigator(client, logger.Component(log, "navigator"), cart, orders)

	// A rejected credential drops the user back to login.
	client.SetUnauthorizedHandler(func(ctx context.Context) {
		t := nav.ForceReauthentication(ctx)
		log.Warn().Str("to", string(t.To)).Msg("session expired, reauthentication required")
	})
	// Entering a view renders at once; its data reloads in the background.
	jobs := queue.NewDispatcher(2, logger.Component(log, "queue"))
	jobs.Start(ctx)
	nav.OnEnter(domain.CartViews, func(context.Context, domain.Transition) {
		jobs.Enqueue(queue.Job{Key: "cart", Run: cart.Reload})
	})
	nav.OnEnter(domain.OrderViews, func(context.Context, domain.Transition) {
		jobs.Enqueue(queue.Job{Key: "orders", Run: orders.Reload})
	})

	restore(ctx, log, sessions, nav)

	e := api.NewRouter(api.Dependencies{
		Log:        logger.Component(log, "http"),
		Navigation: nav,
		Sessions:   sessions,
		Cart:       cart,
		Orders:     orders,
		Renderer:   service.NewDispatcher(cfg.DefaultProduct.Product()),
		Notices:    inbox,
		Checks: map[string]handlers.Pinger{
			"session_store": store,
			"remote_api":    client,
		},
	})
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.IdleTimeout = 120 * time.Second

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("shell listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("shell stopped")
}

// restore resumes a persisted session so a restart lands on the home view.
func restore(ctx context.Context, log zerolog.Logger, sessions *service.SessionService, nav *service.Navigator) {
	session, err := sessions.Restore(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not restore session")
		return
	}
	if !session.IsAuthenticated() {
		return
	}
	if _, err := nav.Resume(ctx, session); err != nil {
		log.Warn().Err(err).Msg("could not resume session")
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (sessionStore, func(), error) {
	switch cfg.Backend {
	case "redis":
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewStore(client, cfg.Redis.KeyPrefix, cfg.Redis.TTL), func() { _ = client.Close() }, nil
	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		return mongostore.NewStore(db), func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}, nil
	case "memory":
		return memory.NewStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
