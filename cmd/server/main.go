package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"treasure-hunt/internal/auth"
	"treasure-hunt/internal/config"
	apphttp "treasure-hunt/internal/http"
	"treasure-hunt/internal/provision"
	"treasure-hunt/internal/service"
	"treasure-hunt/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	st, err := store.Open(connectCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close(context.Background())

	if cfg.Seed.Location != "" {
		res, err := provision.Load(ctx, cfg, st, logger)
		if err != nil {
			logger.Fatalf("seed store: %v", err)
		}
		logger.Infof("seeded %d rounds, %d users", res.Rounds, res.UsersCreated)
	}

	issuer := auth.NewIssuer([]byte(cfg.Auth.JWTSecret), cfg.TokenTTL())
	sessionService := service.NewSessionService(st.Users, issuer, logger.WithField("component", "session"))
	huntService := service.NewHuntService(st.Users, st.Rounds, logger.WithField("component", "hunt"))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(apphttp.RequestID(), apphttp.RequestLogger(logger.WithField("component", "http")), gin.Recovery())
	handler := apphttp.NewHandler(
		sessionService,
		huntService,
		st.Health,
		apphttp.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.SecureCookie,
			TTL:    cfg.TokenTTL(),
		},
		logger,
	)
	handler.RegisterRoutes(router)

	addr := cfg.ListenAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
