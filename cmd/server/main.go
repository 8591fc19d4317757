// Command server runs the WhatsApp messaging relay: the Twilio webhook
// ingest, the AI reply pipeline, and the operator console API.
//
// Startup order: env → config → logging → tracing → storage → integrations →
// HTTP. The process refuses to start without a JWT secret or a reachable
// database; the first admin account is seeded from ADMIN_BOOTSTRAP_PASSWORD
// when the operators table is empty.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/atendezap/go-whats-backend/internal/ai"
	"github.com/atendezap/go-whats-backend/internal/config"
	"github.com/atendezap/go-whats-backend/internal/domain"
	httpapi "github.com/atendezap/go-whats-backend/internal/http"
	"github.com/atendezap/go-whats-backend/internal/messaging"
	"github.com/atendezap/go-whats-backend/internal/observability"
	"github.com/atendezap/go-whats-backend/internal/repo"
	"github.com/atendezap/go-whats-backend/internal/services"
	"github.com/atendezap/go-whats-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sdCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sdCtx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	if err := seedAdmin(ctx, db, services.NewAuthService(db, []byte(cfg.JWTSecret)), cfg.AdminBootstrapPassword); err != nil {
		log.Fatal().Err(err).Msg("admin bootstrap failed")
	}

	engine, err := ai.NewGeminiEngine(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("reply engine setup failed")
	}

	delivery, err := messaging.NewTwilioChannel(
		messaging.WithAccountSID(cfg.Twilio.AccountSID),
		messaging.WithAuthToken(cfg.Twilio.AuthToken),
		messaging.WithFrom(cfg.Twilio.FromNumber),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("delivery channel setup failed")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, engine, delivery, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	sdCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sdCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

// seedAdmin provisions the first admin account when the operators table is
// empty and a bootstrap password is configured. Idempotent across restarts.
func seedAdmin(ctx context.Context, db *gorm.DB, auth *services.AuthService, password string) error {
	n, err := repo.CountOperators(ctx, db)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if password == "" {
		log.Warn().Msg("no operators exist and ADMIN_BOOTSTRAP_PASSWORD is unset; console login is impossible")
		return nil
	}
	op, err := auth.CreateOperator(ctx, "admin", password, domain.OperatorRoleAdmin)
	if err != nil {
		return err
	}
	log.Info().Str("username", op.Username).Msg("bootstrap admin account created")
	return nil
}
