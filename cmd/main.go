package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/config"
	"storefront/controllers"
	"storefront/database"
	"storefront/logger"
	"storefront/pricing"
	"storefront/routes"
	"storefront/services"
)

func main() {
	config.LoadEnv()

	log := logger.New(logger.Options{
		Service: "storefront",
		Env:     config.GetEnv("APP_ENV", "dev"),
		Level:   config.GetEnv("LOG_LEVEL", "info"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uri := config.GetEnv("MONGO_URI", "")
	dbName := config.GetEnv("DB_NAME", "storefront")
	if uri == "" {
		log.Error("MONGO_URI not set")
		os.Exit(1)
	}

	if err := database.ConnectMongo(ctx, uri, dbName); err != nil {
		log.Error("mongodb connection failed", "err", err)
		os.Exit(1)
	}
	database.InitCollections()
	if err := database.EnsureIndexes(ctx); err != nil {
		log.Error("index bootstrap failed", "err", err)
		os.Exit(1)
	}
	log.Info("connected to mongodb", "db", dbName)

	secret := []byte(config.GetEnv("JWT_SECRET", ""))
	if len(secret) == 0 {
		log.Error("JWT_SECRET not set")
		os.Exit(1)
	}

	policy := pricing.FromRates(
		config.GetEnvFloat("TAX_RATE", 0.08),
		config.GetEnvFloat("FREE_SHIPPING_OVER", 35),
		config.GetEnvFloat("SHIPPING_FLAT", 9.99),
	)

	cartStore := database.NewCartStore(database.DB)
	orderStore := database.NewOrderStore(database.DB)
	blacklist := database.NewTokenBlacklist(database.DB)

	cartSvc := services.NewCart(cartStore, cartStore, policy)
	checkoutSvc := services.NewCheckout(cartStore, cartStore, orderStore, orderStore, policy)

	if config.GetEnv("APP_ENV", "dev") != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.SetTrustedProxies(nil)
	routes.RegisterRoutes(r, routes.Deps{
		Auth:      &controllers.AuthController{Secret: secret, TokenTTL: 24 * time.Hour, Blacklist: blacklist},
		Cart:      &controllers.CartController{Cart: cartSvc},
		Order:     &controllers.OrderController{Checkout: checkoutSvc},
		Secret:    secret,
		Blacklist: blacklist,
	})

	srv := &http.Server{
		Addr:    ":" + config.GetEnv("PORT", "8080"),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	log.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", "err", err)
		os.Exit(1)
	}

	_ = database.Client.Disconnect(context.Background())
	log.Info("shutdown complete")
}
