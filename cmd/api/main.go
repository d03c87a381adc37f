package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/workforce-backend-go/internal/config"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/company"
	appHTTP "github.com/cmlabs-hris/workforce-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/workforce-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/workforce-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/workforce-backend-go/internal/service/attendance"
	reportService "github.com/cmlabs-hris/workforce-backend-go/internal/service/report"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	level, _ := cfg.SlogLevel()
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "workforce"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	loc, _ := cfg.Location()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.DatabaseURL()); err != nil {
			return fmt.Errorf("error migrating database: %w", err)
		}
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	tx := postgresql.NewTransactor(db)
	timeEntryRepo := postgresql.NewTimeEntryRepository(db)
	breakRepo := postgresql.NewBreakIntervalRepository(db)
	changeRequestRepo := postgresql.NewChangeRequestRepository(db)

	var companies company.Directory = postgresql.NewCompanyDirectory(db)
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("Company cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			companies = cache.NewCompanyDirectory(companies, redisClient, cfg.Redis.CompanyCacheTTL)
			slog.Info("Company cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CompanyCacheTTL)
		}
	}

	clock := attendanceService.Clock{Now: time.Now, Location: loc}
	clockSvc := attendanceService.NewClockService(tx, companies, timeEntryRepo, breakRepo, clock)
	breakSvc := attendanceService.NewBreakService(tx, timeEntryRepo, breakRepo, clock)
	changeRequestSvc := attendanceService.NewChangeRequestService(tx, timeEntryRepo, changeRequestRepo, clock)
	reportSvc := reportService.NewReportService(timeEntryRepo, loc)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	clockLimiter := middleware.NewRateLimiter(cfg.RateLimit.ClockPerMinute, cfg.RateLimit.ClockBurst)

	router := appHTTP.NewRouter(JWTService, appHTTP.Handlers{
		Attendance:    appHTTP.NewAttendanceHandler(clockSvc, breakSvc, reportSvc),
		Break:         appHTTP.NewBreakHandler(breakSvc, clockSvc),
		ChangeRequest: appHTTP.NewChangeRequestHandler(changeRequestSvc, clockSvc),
	}, appHTTP.RouterOptions{
		Logger:         logger,
		LogLevel:       level,
		AllowedOrigins: cfg.App.AllowedOrigins,
		ClockLimiter:   clockLimiter,
	})

	scheduler := cron.NewScheduler()
	cron.NewMaintenanceJobs(timeEntryRepo, clockLimiter, time.Now, loc).
		RegisterJobs(scheduler, cfg.Jobs.UnclosedEntryCheckInterval)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	scheduler.Start()
	defer scheduler.Stop()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
