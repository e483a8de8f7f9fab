package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenarog/zenarog-engine/pkg/auth"
	"github.com/zenarog/zenarog-engine/pkg/config"
	"github.com/zenarog/zenarog-engine/pkg/database"
	"github.com/zenarog/zenarog-engine/pkg/drugref"
	"github.com/zenarog/zenarog-engine/pkg/handlers"
	"github.com/zenarog/zenarog-engine/pkg/identify"
	"github.com/zenarog/zenarog-engine/pkg/llm"
	"github.com/zenarog/zenarog-engine/pkg/logging"
	"github.com/zenarog/zenarog-engine/pkg/mcp"
	"github.com/zenarog/zenarog-engine/pkg/mcp/tools"
	"github.com/zenarog/zenarog-engine/pkg/middleware"
	"github.com/zenarog/zenarog-engine/pkg/ocr"
	"github.com/zenarog/zenarog-engine/pkg/realtime"
	"github.com/zenarog/zenarog-engine/pkg/repositories"
	"github.com/zenarog/zenarog-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("store", cfg.Store.Backend),
		zap.Bool("redis", cfg.Redis.IsAvailable()),
		zap.Bool("vision", cfg.Vision.IsAvailable()),
		zap.Bool("chat", cfg.Chat.IsAvailable()),
		zap.Bool("sentry", cfg.Sentry.IsAvailable()))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.String("error", logging.SanitizeError(err)))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub, err := initSentry(cfg)
	if err != nil {
		return err
	}
	if hub != nil {
		defer sentry.Flush(2 * time.Second)
	}

	checks := map[string]handlers.HealthCheck{}
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	store, closeStore, err := openStore(ctx, cfg, checks, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	bus, closeBus, err := openBus(ctx, cfg, checks, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closeBus)

	collections := repositories.NewCollections(store, bus, logger)

	// Models and reference data
	visionClient, err := llm.NewVisionClient(ctx, &cfg.Vision, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closeClient(visionClient, "vision", logger))
	chatClient, err := llm.NewChatClient(&cfg.Chat, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closeClient(chatClient, "chat", logger))
	labels := drugref.NewClient(&cfg.OpenFDA, nil, logger)
	dictionary := drugref.DefaultDictionary()
	pipeline := newPipeline(cfg, visionClient, labels, dictionary, logger)

	// Services
	medicationService := services.NewMedicationService(collections.Medications, logger)
	trackerService := services.NewTrackerService(collections.Medications, collections.MedicationLogs, logger)
	scanService := services.NewScanService(pipeline, medicationService, logger)
	chatService := services.NewChatService(chatClient, logger)
	reportService := services.NewReportService(collections.Medications, collections.MedicationLogs, logger)
	workoutService := services.NewWorkoutService(collections.Workouts, logger)
	mealService := services.NewMealService(collections.Meals, logger)
	calorieService := services.NewCalorieService(collections.CalorieLogs, logger)
	dashboardService := services.NewDashboardService(collections, medicationService, trackerService, logger)

	// Authentication
	jwksClient, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize JWKS client: %w", err)
	}
	defer jwksClient.Close()

	sessionSecret := cfg.Session.Secret
	if sessionSecret == "" {
		logger.Warn("SESSION_SECRET not set, sessions will not survive restarts")
		sessionSecret = uuid.NewString()
	}
	sessions := auth.NewSessionManager(sessionSecret, cfg.Session.MaxAge,
		auth.DeriveCookieSettings(cfg.BaseURL, cfg.Session.CookieDomain))
	authService := auth.NewAuthService(jwksClient, sessions, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	// Routes
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, checks, logger).RegisterRoutes(mux)
	handlers.NewSessionHandler(authService, sessions, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewScanHandler(scanService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewMedicationHandler(medicationService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewTrackerHandler(trackerService, reportService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewWorkoutHandler(workoutService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewMealHandler(mealService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewCalorieHandler(calorieService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewDashboardHandler(dashboardService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewChatHandler(chatService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewStreamHandler(collections, cfg.AllowedOrigins, logger).RegisterRoutes(mux, authMiddleware)

	mcpServer := mcp.NewServer(cfg.Version, &tools.MedicationToolDeps{
		Labels:     labels,
		Dictionary: dictionary,
		Logger:     logger.Named("mcp-tools"),
	}, logger)
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux, authMiddleware)

	var handler http.Handler = mux
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.Recoverer(logger, hub)(handler)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting zenarog-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// closeClient returns a shutdown hook for model clients that hold connections.
func closeClient(client any, name string, logger *zap.Logger) func() {
	closer, ok := client.(io.Closer)
	if !ok {
		return func() {}
	}
	return func() {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close model client", zap.String("client", name), zap.Error(err))
		}
	}
}

// initSentry returns nil when no DSN is configured.
func initSentry(cfg *config.Config) (*sentry.Hub, error) {
	if !cfg.Sentry.IsAvailable() {
		return nil, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		SampleRate:  cfg.Sentry.SampleRate,
		Environment: cfg.Env,
		Release:     "zenarog-engine@" + cfg.Version,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return sentry.CurrentHub(), nil
}

// openStore connects the configured document store backend and registers
// its health check.
func openStore(ctx context.Context, cfg *config.Config, checks map[string]handlers.HealthCheck, logger *zap.Logger) (repositories.DocumentStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := database.NewConnection(ctx, &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(cfg.Database.MigrationsPath, logger); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		checks["store"] = db.Ping
		return repositories.NewPostgresDocumentStore(db), db.Close, nil

	case config.StoreBackendMongo:
		client, mongoDB, err := database.NewMongoDatabase(ctx, &cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		checks["store"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("Failed to disconnect MongoDB", zap.Error(err))
			}
		}
		return repositories.NewMongoDocumentStore(mongoDB), closeFn, nil

	case config.StoreBackendFirestore:
		client, err := database.NewFirestoreClient(ctx, &cfg.Firestore)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close Firestore client", zap.Error(err))
			}
		}
		return repositories.NewFirestoreDocumentStore(client, logger), closeFn, nil

	case config.StoreBackendMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return repositories.NewMemoryDocumentStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// openBus returns the change bus: Redis when configured so that every
// instance sees every write, otherwise process-local.
func openBus(ctx context.Context, cfg *config.Config, checks map[string]handlers.HealthCheck, logger *zap.Logger) (realtime.Bus, func(), error) {
	if !cfg.Redis.IsAvailable() {
		return realtime.NewLocalBus(), func() {}, nil
	}

	client, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	return realtime.NewRedisBus(client, logger), closeFn, nil
}

// newPipeline assembles the identification pipeline. Without a vision model
// only client-supplied label text can be scanned.
func newPipeline(cfg *config.Config, visionClient llm.VisionClient, labels drugref.Searcher, dictionary *drugref.Dictionary, logger *zap.Logger) *identify.Pipeline {
	var (
		visionExtractor identify.Extractor
		recognizer      ocr.TextRecognizer
	)
	if visionClient != nil {
		visionExtractor = identify.NewVisionExtractor(visionClient, logger)
		recognizer = ocr.NewVisionRecognizer(visionClient)
	} else {
		logger.Warn("No vision model configured, image scans are disabled")
	}

	resolvers := []identify.Resolver{
		identify.NewReferenceResolver(labels),
		identify.NewImprintResolver(dictionary, cfg.Identification.ConfidenceFloor),
	}

	return identify.NewPipeline(visionExtractor, identify.NewOCRExtractor(recognizer, logger), resolvers, logger)
}
