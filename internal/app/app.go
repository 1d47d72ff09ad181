package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salespulse/internal/config"
	"salespulse/internal/dataprocessing"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	customMiddleware "salespulse/internal/middleware"
	"salespulse/internal/services"
	handlers "salespulse/internal/transport/http"
)

const (
	VERSION = "v1.0.0"
	AppName = "SalesPulse"
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(VERSION))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config       *config.Config
	Router       *chi.Mux
	Server       *http.Server
	Logger       *slog.Logger
	Telemetry    *infrastructure.TelemetryProviders
	Cache        *dataprocessing.TableCache
	Dashboard    *services.DashboardService
	Health       *services.HealthService
	ErrorHandler *apierrors.ErrorHandler
}

// NewApplication loads configuration from the environment and config files
// and wires the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewApplicationWithConfig(cfg, logger)
}

// NewApplicationWithConfig wires the application around an already loaded
// configuration. A nil logger falls back to slog.Default.
func NewApplicationWithConfig(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("source_file", cfg.Data.SourceFile))

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	app := &Application{
		Config:       cfg,
		Logger:       logger,
		Telemetry:    telemetry,
		ErrorHandler: apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices builds the pipeline, cache and services
func (a *Application) initializeServices() error {
	sourcePath, err := a.Config.SourcePath()
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}

	normalizer := dataprocessing.NewNormalizer(a.Logger, dataprocessing.NormalizerConfig{
		MaxFileBytes: a.Config.Data.MaxFileBytes,
	})
	a.Cache = dataprocessing.NewTableCache(normalizer, a.Logger, a.Config.Data.CacheMaxEntries)
	a.Dashboard = services.NewDashboardService(a.Cache, sourcePath, a.Logger)
	a.Health = services.NewHealthServiceWithBuildInfo(VERSION, BuildTime, BuildID, a.Dashboard, a.Logger)

	a.Logger.Info("Services initialized", slog.String("source_path", sourcePath))
	return nil
}

// setupRouter configures the chi router with middleware and routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.Telemetry, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create otel middleware: %w", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			limiter := customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			)
			r.Use(limiter.Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

			healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)

			validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler)
			dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, validation, a.Logger, a.ErrorHandler)
			r.With(
				validation.ValidateRequest,
				customMiddleware.ContentTypeValidator("application/json"),
				customMiddleware.Compress(5),
			).Mount("/dashboard", dashboardHandler.Routes())
		})
	})

	if a.Telemetry.PrometheusHTTP != nil {
		r.Handle("/metrics", a.Telemetry.PrometheusHTTP)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
	return nil
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server. A listen failure cancels ctx.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("version", VERSION),
		slog.String("build_id", BuildID),
		slog.String("address", a.Server.Addr))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.warmCache(ctx)

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("url", fmt.Sprintf("http://%s", a.Server.Addr)))
	return nil
}

// warmCache loads the source once so the first request is served from the
// cache. Failures are logged; the dashboard reports them per request.
func (a *Application) warmCache(ctx context.Context) {
	res, err := a.Dashboard.Source(ctx)
	if err != nil {
		a.Logger.WarnContext(ctx, "Startup load of source file failed",
			slog.String("path", a.Dashboard.SourcePath()),
			slog.String("error", err.Error()))
		return
	}

	for _, adv := range res.Advisories {
		a.Logger.WarnContext(ctx, "Source advisory",
			slog.String("code", string(adv.Code)),
			slog.String("message", adv.Message))
	}
	a.Logger.InfoContext(ctx, "Source file loaded",
		slog.String("path", res.Data.Path),
		slog.Int("rows", res.Data.Rows))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Stopping application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Server shutdown error", slog.String("error", err.Error()))
	}

	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application stopped")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
