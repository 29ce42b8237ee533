package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/baladyapp/balady-backend/api"
	"github.com/baladyapp/balady-backend/api/routes"
	"github.com/baladyapp/balady-backend/internal/addresses"
	"github.com/baladyapp/balady-backend/internal/cart"
	"github.com/baladyapp/balady-backend/internal/identity"
	"github.com/baladyapp/balady-backend/internal/orders"
	"github.com/baladyapp/balady-backend/internal/products"
	"github.com/baladyapp/balady-backend/internal/rbac"
	"github.com/baladyapp/balady-backend/internal/reviews"
	"github.com/baladyapp/balady-backend/internal/shipping"
	"github.com/baladyapp/balady-backend/internal/stock"
	"github.com/baladyapp/balady-backend/internal/users"
	"github.com/baladyapp/balady-backend/internal/wishlist"
	"github.com/baladyapp/balady-backend/pkg/config"
	"github.com/baladyapp/balady-backend/pkg/db"
	"github.com/baladyapp/balady-backend/pkg/logger"
	"github.com/baladyapp/balady-backend/pkg/metrics"
	"github.com/baladyapp/balady-backend/pkg/migrate"
	"github.com/baladyapp/balady-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	deps, err := buildServices(cfg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}
	deps.Config = cfg
	deps.Logger = logg
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.HTTPMetrics = metrics.NewHTTPMetrics()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := api.NewServer(addr, routes.NewRouter(deps))

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		var errs error
		errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
		errs = multierr.Append(errs, redisClient.Close())
		errs = multierr.Append(errs, dbClient.Close())
		if errs != nil {
			logg.Error(ctx, "shutdown finished with errors", errs)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}

func buildServices(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (routes.Deps, error) {
	gdb := dbClient.DB()

	stockSvc, err := stock.NewService(stock.NewRepository(gdb), dbClient)
	if err != nil {
		return routes.Deps{}, err
	}
	identitySvc, err := identity.NewService(identity.NewRepository(gdb))
	if err != nil {
		return routes.Deps{}, err
	}
	usersSvc, err := users.NewService(users.NewRepository(gdb), dbClient, identitySvc, cfg.JWT, cfg.Password)
	if err != nil {
		return routes.Deps{}, err
	}
	productsSvc, err := products.NewService(products.NewRepository(gdb), stockSvc)
	if err != nil {
		return routes.Deps{}, err
	}
	cartSvc, err := cart.NewService(cart.NewRepository(gdb), gdb)
	if err != nil {
		return routes.Deps{}, err
	}
	ordersSvc, err := orders.NewService(
		orders.NewRepository(gdb),
		dbClient,
		stockSvc,
		identitySvc,
		shipping.DefaultTable(),
		cfg.Checkout.PlaceOrderTimeout,
	)
	if err != nil {
		return routes.Deps{}, err
	}
	addressesSvc, err := addresses.NewService(addresses.NewRepository(gdb), dbClient)
	if err != nil {
		return routes.Deps{}, err
	}
	reviewsSvc, err := reviews.NewService(reviews.NewRepository(gdb), gdb)
	if err != nil {
		return routes.Deps{}, err
	}
	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(gdb), gdb)
	if err != nil {
		return routes.Deps{}, err
	}
	rbacSvc, err := rbac.NewService(rbac.NewRepository(gdb), redisClient, cfg.RBAC.PermissionCacheTTL)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Users:     usersSvc,
		Products:  productsSvc,
		Cart:      cartSvc,
		Orders:    ordersSvc,
		Addresses: addressesSvc,
		Reviews:   reviewsSvc,
		Wishlist:  wishlistSvc,
		Identity:  identitySvc,
		RBAC:      rbacSvc,
	}, nil
}
