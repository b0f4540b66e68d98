package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/handler"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/service"
	"github.com/masumBillah-1/AssetVerse-Server-Site/internal/store"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/config"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/database"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/jwtutil"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/logger"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/metrics"
	mid "github.com/masumBillah-1/AssetVerse-Server-Site/pkg/middleware"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/payment"
	"github.com/masumBillah-1/AssetVerse-Server-Site/pkg/validation"
	"github.com/masumBillah-1/AssetVerse-Server-Site/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const serviceName = "assetverse"

func main() {
	appConfig, err := config.Load(serviceName)
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: serviceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting "+serviceName, appConfig.LogConfig()...)

	prometheus.InitMetrics(appConfig.Metrics.Prefix, promclient.DefaultRegisterer)
	log.Info("Prometheus metrics initialized", zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	st, err := openStore(appConfig, log)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	claims := openClaimStore(appConfig, log)
	defer claims.Close()

	var checkout service.CheckoutProvider
	if appConfig.Stripe.SecretKey != "" {
		provider, err := payment.NewStripeProvider(appConfig.Stripe, log.Named("stripe"))
		if err != nil {
			log.Fatal("Failed to initialize checkout provider", zap.Error(err))
		}
		checkout = provider
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, hosted checkout disabled")
	}

	directory := service.NewDirectoryService(st, log.Named("directory"))
	notifications := service.NewNotificationService(directory, st, st, log.Named("notifications"))
	inventory := service.NewInventoryService(directory, notifications, st, log.Named("inventory"))
	requests := service.NewRequestService(directory, inventory, notifications, st, st, log.Named("requests"))
	billing := service.NewBillingService(st, st, claims, checkout, service.BillingOptions{
		Currency: appConfig.Stripe.Currency,
		ClaimTTL: appConfig.Redis.ClaimTTL,
	}, log.Named("billing"))

	tiers, err := config.LoadPackages(appConfig.PackagesFile)
	if err != nil {
		log.Fatal("Failed to load package catalogue", zap.Error(err))
	}
	if err := billing.SeedPackages(context.Background(), tiers); err != nil {
		log.Fatal("Failed to seed packages", zap.Error(err))
	}

	httpMetrics := metrics.NewHTTPMetrics(appConfig.Metrics.Prefix, promclient.DefaultRegisterer)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware())
	e.Use(logger.Middleware(log))
	e.Use(httpMetrics.Middleware())

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(promclient.DefaultGatherer)))

	handler.Register(e, handler.Deps{
		ServiceName:   serviceName,
		Store:         st,
		JWT:           jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: appConfig.JWT.SigningKey, ExpirationHours: appConfig.JWT.ExpirationHours}),
		Directory:     directory,
		Inventory:     inventory,
		Requests:      requests,
		Notifications: notifications,
		Billing:       billing,
	})

	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}

func openStore(appConfig *config.Config, log *zap.Logger) (store.Store, error) {
	if appConfig.DB.Driver == config.DriverMemory {
		log.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	db, err := database.InitDB(&appConfig.DB, log)
	if err != nil {
		return nil, err
	}
	pg := store.NewPostgresStore(db, log.Named("store"))
	if err := pg.Migrate(); err != nil {
		pg.Close()
		return nil, err
	}
	log.Info("Database connection established")
	return pg, nil
}

func openClaimStore(appConfig *config.Config, log *zap.Logger) store.ClaimStore {
	if !appConfig.Redis.Enabled() {
		log.Info("REDIS_ADDR not set, payment claims kept in memory")
		return store.NewMemoryClaimStore()
	}

	claims, err := store.NewRedisClaimStore(appConfig.Redis.Addr, appConfig.Redis.Password, appConfig.Redis.DB, serviceName+":", log.Named("claims"))
	if err != nil {
		// The unique session index still guards payments
		log.Warn("Redis unavailable, payment claims kept in memory", zap.Error(err))
		return store.NewMemoryClaimStore()
	}
	return claims
}
