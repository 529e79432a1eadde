package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quantaira/vitals/internal/config"
	"github.com/quantaira/vitals/internal/domain/gateway"
	"github.com/quantaira/vitals/internal/domain/ingest"
	"github.com/quantaira/vitals/internal/domain/measurement"
	"github.com/quantaira/vitals/internal/domain/patient"
	"github.com/quantaira/vitals/internal/platform/auth"
	"github.com/quantaira/vitals/internal/platform/db"
	"github.com/quantaira/vitals/internal/platform/demo"
	"github.com/quantaira/vitals/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "vitals-server",
		Short: "Webhook ingestion and vitals query API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(gatewayCmd())
	rootCmd.AddCommand(seedCmd())

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
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				migrator := db.NewMigrator(pool, dir)
				count, err := migrator.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
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
			})
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func gatewayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Manage gateway-to-patient bindings",
	}

	bindCmd := &cobra.Command{
		Use:   "bind",
		Short: "Bind a gateway to a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			gatewayID, _ := cmd.Flags().GetString("gateway")
			patientID, _ := cmd.Flags().GetString("patient")
			if gatewayID == "" || patientID == "" {
				return fmt.Errorf("--gateway and --patient are required")
			}
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				svc := gateway.NewService(gateway.NewPgRepository(pool), zerolog.Nop())
				b, err := svc.Bind(ctx, gatewayID, patientID)
				if err != nil {
					return err
				}
				fmt.Printf("Bound gateway %s to patient %s\n", b.GatewayNorm, b.PatientID)
				return nil
			})
		},
	}
	bindCmd.Flags().String("gateway", "", "Gateway identifier (normalized automatically)")
	bindCmd.Flags().String("patient", "", "Patient identifier")
	cmd.AddCommand(bindCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List gateway bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				svc := gateway.NewService(gateway.NewPgRepository(pool), zerolog.Nop())
				bindings, err := svc.List(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%-20s %-20s %s\n", "GATEWAY", "PATIENT", "UPDATED AT")
				for _, b := range bindings {
					fmt.Printf("%-20s %-20s %s\n", b.GatewayNorm, b.PatientID, b.UpdatedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	}
	cmd.AddCommand(listCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the store with labeled demo vitals",
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, _ := cmd.Flags().GetInt("hours")
			intervalMin, _ := cmd.Flags().GetInt("interval")
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				logger := newLogger(cfg)
				measurements := measurement.NewService(measurement.NewPgRepository(pool), boundsFrom(cfg), logger)
				patients := patient.NewService(patient.NewPgRepository(pool), measurements, logger)
				seeder := demo.NewSeeder(measurements, patients, logger)
				return seeder.Seed(ctx, cfg.ParseNameMap(), hours, time.Duration(intervalMin)*time.Minute)
			})
		},
	}
	cmd.Flags().Int("hours", 24, "Hours of history to generate")
	cmd.Flags().Int("interval", 15, "Minutes between readings")
	return cmd
}

// withPool loads config, opens the database pool and hands both to fn.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
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
	return fn(ctx, cfg, pool)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func boundsFrom(cfg *config.Config) measurement.Bounds {
	return measurement.Bounds{
		DefaultWindowHours: cfg.DefaultWindowHours,
		MaxWindowHours:     cfg.MaxWindowHours,
		DefaultLimit:       cfg.DefaultQueryLimit,
		MaxLimit:           cfg.MaxQueryLimit,
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stdout)
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Services
	measurements := measurement.NewService(measurement.NewPgRepository(pool), boundsFrom(cfg), logger)
	gateways := gateway.NewService(gateway.NewPgRepository(pool), logger)
	patients := patient.NewService(patient.NewPgRepository(pool), measurements, logger)
	resolver := ingest.NewResolver(gateways, patients, logger)
	ingestSvc := ingest.NewService(ingest.NewPgDeliveryRepo(pool), resolver, measurements, "tenovi", logger)

	// Seed maps from configuration.
	if names := cfg.ParseNameMap(); len(names) > 0 {
		if err := patients.SeedNames(ctx, names); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed patient names")
		}
	}
	if seed := cfg.ParseGatewaySeed(); len(seed) > 0 {
		if err := gateways.Seed(ctx, seed); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed gateway bindings")
		}
	}

	if cfg.DemoMode {
		seeder := demo.NewSeeder(measurements, patients, logger)
		if err := seeder.Seed(ctx, cfg.ParseNameMap(), cfg.DefaultWindowHours, 15*time.Minute); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Webhook-Key", "X-Auth-Key"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	// Webhook endpoints check the shared secret themselves.
	ingest.NewHandler(ingestSvc, cfg.WebhookSecret, logger).RegisterRoutes(e)

	// Dashboard read API.
	api := e.Group("", auth.DashboardAuth(cfg.DashboardJWTSecret))
	measurement.NewHandler(measurements).RegisterRoutes(api)
	gateway.NewHandler(gateways).RegisterRoutes(api)
	patient.NewHandler(patients).RegisterRoutes(api)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
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
