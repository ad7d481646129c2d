package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tenure.app/internal/audit"
	"tenure.app/internal/config"
	"tenure.app/internal/httpapi"
	"tenure.app/internal/identity"
	"tenure.app/internal/obs"
	"tenure.app/internal/property"
	"tenure.app/internal/store/pg"
	"tenure.app/internal/tenancy"
	"tenure.app/internal/ws"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("TENURE_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		obs.Logger().Fatal("config", zap.Error(err))
	}
	obs.SetLevel(cfg.LogLevel)
	log := obs.Logger()

	var (
		stores     property.Stores
		identities identity.Store
		auditStore audit.Store
		ready      func(ctx context.Context) error
		pgStore    *pg.Store
	)
	if cfg.PostgresDSN != "" {
		pgStore, err = pg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("open postgres", zap.Error(err))
		}
		defer pgStore.Close()
		stores = pgStore.Stores()
		identities = pgStore.Identities()
		auditStore = pgStore.Audit()
		ready = pgStore.Ping
		log.Info("storage", zap.String("backend", "postgres"))
	} else {
		stores = property.NewMemory().Stores()
		identities = identity.NewMemory()
		auditStore = audit.NewMemory()
		log.Warn("storage", zap.String("backend", "memory"), zap.String("note", "data is not persisted"))
	}

	recorder, err := audit.NewRecorder(auditStore)
	if err != nil {
		log.Fatal("audit recorder", zap.Error(err))
	}
	resolver, err := tenancy.NewResolver(recorder)
	if err != nil {
		log.Fatal("scope resolver", zap.Error(err))
	}
	tokens, err := identity.NewTokens(cfg.AuthSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatal("tokens", zap.Error(err))
	}
	sessions, err := identity.NewSessionResolver(tokens, identities)
	if err != nil {
		log.Fatal("sessions", zap.Error(err))
	}

	gateway := ws.NewGateway(ws.GatewayOptions{
		Hub:        ws.NewHub(),
		Sessions:   sessions,
		Stores:     stores,
		CookieName: cfg.CookieName,
		Origins:    cfg.Origins(),
	})

	api := httpapi.New(httpapi.Options{
		Stores:       stores,
		Identities:   identities,
		Sessions:     sessions,
		Tokens:       tokens,
		Scope:        resolver,
		Ready:        ready,
		WS:           gateway,
		CookieName:   cfg.CookieName,
		CookieSecure: cfg.CookieSecure,
		Origins:      cfg.Origins(),
		RateBurst:    cfg.RateBurst,
		RatePerSec:   cfg.RatePerSec,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("starting tenure-api", zap.String("version", version), zap.String("addr", srv.Addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("stopped")
}
