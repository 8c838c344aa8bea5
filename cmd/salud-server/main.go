package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/saludplus/saludplus/internal/config"
	"github.com/saludplus/saludplus/internal/domain/account"
	"github.com/saludplus/saludplus/internal/domain/clinical"
	"github.com/saludplus/saludplus/internal/domain/organization"
	"github.com/saludplus/saludplus/internal/domain/patient"
	"github.com/saludplus/saludplus/internal/domain/registration"
	"github.com/saludplus/saludplus/internal/domain/subscription"
	"github.com/saludplus/saludplus/internal/platform/auth"
	"github.com/saludplus/saludplus/internal/platform/authx"
	"github.com/saludplus/saludplus/internal/platform/db"
	"github.com/saludplus/saludplus/internal/platform/middleware"
	"github.com/saludplus/saludplus/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "salud-server",
		Short: "SaludPlus practice management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Signup and invitation redemption happen before the caller has a token.
	publicAPI := e.Group("/api/v1")
	publicAPI.Use(middleware.RateLimit(rateLimitCfg))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	// Repositories
	accountRepo := account.NewRepoPG(pool)
	orgRepo := organization.NewRepoPG(pool)
	inviteRepo := organization.NewInvitationRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	unregisteredRepo := patient.NewUnregisteredRepoPG(pool)
	groupRepo := patient.NewFamilyGroupRepoPG(pool)
	subRepo := subscription.NewRepoPG(pool)
	consultationRepo := clinical.NewConsultationRepoPG(pool)
	prescriptionRepo := clinical.NewPrescriptionRepoPG(pool)
	appointmentRepo := clinical.NewAppointmentRepoPG(pool)

	// External collaborators
	var provider authx.Provider
	if cfg.AuthURL != "" {
		provider = authx.NewClient(cfg.AuthURL, cfg.AuthServiceKey)
		logger.Info().Str("url", cfg.AuthURL).Msg("identity provider configured")
	} else {
		logger.Warn().Msg("no identity provider configured, accounts use local password hashing")
	}
	notifier := notification.NewDispatcher(&notification.LogSender{Logger: logger}, notification.NewTemplateEngine())

	// Registration workflow
	provisioner := registration.NewAuthProvisioner(provider, notifier, logger)
	migrator := registration.NewHistoryMigrator(logger,
		registration.HistoryStore{Name: "consultation", Reassign: consultationRepo.ReassignUnregistered},
		registration.HistoryStore{Name: "prescription", Reassign: prescriptionRepo.ReassignUnregistered},
		registration.HistoryStore{Name: "appointment", Reassign: appointmentRepo.ReassignUnregistered},
	)
	registrationSvc := registration.NewService(registration.ServiceDeps{
		Accounts:     accountRepo,
		Orgs:         orgRepo,
		Invites:      inviteRepo,
		Patients:     patientRepo,
		Unregistered: unregisteredRepo,
		Groups:       groupRepo,
		Subs:         subRepo,
		Provisioner:  provisioner,
		Migrator:     migrator,
		Notifier:     notifier,
		Log:          logger,
	})
	registrationHandler := registration.NewHandler(registrationSvc, logger, cfg.IsProduction())
	registrationHandler.RegisterRoutes(publicAPI)

	// Domain services
	orgHandler := organization.NewHandler(organization.NewService(orgRepo, inviteRepo))
	orgHandler.RegisterRoutes(apiV1)
	orgHandler.RegisterPublicRoutes(publicAPI)

	patientHandler := patient.NewHandler(patient.NewService(patientRepo, unregisteredRepo, groupRepo))
	patientHandler.RegisterRoutes(apiV1)

	clinicalHandler := clinical.NewHandler(clinical.NewService(consultationRepo, prescriptionRepo, appointmentRepo))
	clinicalHandler.RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
