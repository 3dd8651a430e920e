package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/origination/internal/application/dto"
	"github.com/bibbank/origination/internal/application/usecase"
	"github.com/bibbank/origination/internal/domain/service"
	"github.com/bibbank/origination/internal/infrastructure/config"
	"github.com/bibbank/origination/internal/infrastructure/kafka"
	"github.com/bibbank/origination/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/origination/internal/infrastructure/redis"
	"github.com/bibbank/origination/internal/infrastructure/scheduler"
	"github.com/bibbank/origination/internal/infrastructure/spreadsheet"
	"github.com/bibbank/origination/internal/infrastructure/telemetry"
	grpcPresentation "github.com/bibbank/origination/internal/presentation/grpc"
	"github.com/bibbank/origination/internal/presentation/rest"
	"github.com/bibbank/origination/pkg/auth"
	pkgkafka "github.com/bibbank/origination/pkg/kafka"
	"github.com/bibbank/origination/pkg/observability"
	pkgpostgres "github.com/bibbank/origination/pkg/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("origination-service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Amounts leave the service as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Info("starting origination-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Initialize tracing.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
	}

	// Metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck // best-effort
	recorder, err := telemetry.NewRecorder(meterProvider)
	if err != nil {
		return fmt.Errorf("init recorder: %w", err)
	}

	// Database connection.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, cfg.DB.Postgres())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := pkgpostgres.RunMigrations(cfg.DB.Postgres().DSN(), postgres.Migrations, postgres.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Import job store.
	redisClient, err := redis.NewClient(dbCtx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }() //nolint:errcheck // best-effort
	jobStore := redis.NewImportJobStore(redisClient, cfg.Redis.JobTTL)

	// Kafka.
	producer, err := pkgkafka.NewProducer(cfg.Kafka.Client())
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer func() { _ = producer.Close() }() //nolint:errcheck // best-effort
	publisher := kafka.NewEventPublisher(producer, cfg.Kafka.EventsTopic, logger)
	importQueue := kafka.NewImportQueue(producer, cfg.Kafka.ImportTopic)

	// Wire use cases.
	store := postgres.NewStore(pool)
	evaluator := service.NewCreditEvaluator(service.DefaultScoringWeights())
	reader := spreadsheet.NewReader()

	registerUC := usecase.NewRegisterCustomerUseCase(store.Customers(), publisher, logger)
	eligibilityUC := usecase.NewCheckEligibilityUseCase(store.Customers(), store.Loans(), evaluator, recorder)
	createLoanUC := usecase.NewCreateLoanUseCase(store, evaluator, publisher, recorder, logger)
	viewLoanUC := usecase.NewViewLoanUseCase(store.Loans(), store.Customers())
	customerLoansUC := usecase.NewViewCustomerLoansUseCase(store.Customers(), store.Loans())
	scheduleUC := usecase.NewScheduleImportUseCase(jobStore, importQueue)
	getJobUC := usecase.NewGetImportJobUseCase(jobStore)
	dataStatusUC := usecase.NewDataStatusUseCase(store.Customers(), store.Loans())
	runImportUC := usecase.NewRunImportUseCase(
		jobStore,
		usecase.NewIngestCustomersUseCase(store, reader),
		usecase.NewIngestLoansUseCase(store, reader),
		publisher,
		recorder,
		logger,
	)

	// JWT service (validation-only: public key preferred, secret as fallback).
	jwtCfg, err := auth.ValidationConfig(auth.KeySources{
		PublicKey:     cfg.Auth.PublicKey,
		PublicKeyFile: cfg.Auth.PublicKeyFile,
		Secret:        cfg.Auth.Secret,
		Issuer:        cfg.Auth.Issuer,
	})
	if err != nil {
		return fmt.Errorf("jwt config: %w", err)
	}
	jwtSvc, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return fmt.Errorf("init jwt service: %w", err)
	}

	// gRPC server.
	grpcServer, err := grpcPresentation.NewServer(
		grpcPresentation.NewHandler(grpcPresentation.UseCases{
			Register:      registerUC,
			Eligibility:   eligibilityUC,
			CreateLoan:    createLoanUC,
			ViewLoan:      viewLoanUC,
			CustomerLoans: customerLoansUC,
		}, logger),
		grpcPresentation.ServerConfig{
			TLSCertFile: cfg.GRPC.TLSCertFile,
			TLSKeyFile:  cfg.GRPC.TLSKeyFile,
			Reflection:  cfg.GRPC.Reflection,
		},
		jwtSvc,
		logger,
	)
	if err != nil {
		return err
	}

	// HTTP server.
	importDefaults := dto.ScheduleImportRequest{
		CustomerFile: cfg.Import.CustomerFile,
		LoanFile:     cfg.Import.LoanFile,
	}
	router := rest.NewRouter(logger, metricsHandler,
		rest.NewHealthHandler(map[string]rest.Pinger{
			"postgres": store,
			"redis":    rest.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		}, logger),
		rest.NewLoanHandler(rest.LoanUseCases{
			Register:      registerUC,
			Eligibility:   eligibilityUC,
			CreateLoan:    createLoanUC,
			ViewLoan:      viewLoanUC,
			CustomerLoans: customerLoansUC,
		}, logger),
		rest.NewImportHandler(rest.ImportUseCases{
			Schedule:   scheduleUC,
			GetJob:     getJobUC,
			DataStatus: dataStatusUC,
		}, jwtSvc, importDefaults, logger),
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Import worker.
	worker := kafka.NewImportWorker(runImportUC, logger)
	consumer, err := pkgkafka.NewConsumer(cfg.Kafka.Client(), cfg.Kafka.ImportTopic, worker.Handle, logger)
	if err != nil {
		return fmt.Errorf("create import consumer: %w", err)
	}
	defer func() { _ = consumer.Close() }() //nolint:errcheck // best-effort

	// Scheduled import, disabled when no schedule is configured.
	var sched *scheduler.ImportScheduler
	if cfg.Import.Schedule != "" {
		sched, err = scheduler.NewImportScheduler(cfg.Import.Schedule, scheduleUC, importDefaults, logger)
		if err != nil {
			return err
		}
	}

	// Start servers and background workers.
	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("import worker error: %w", err)
		}
	}()

	if sched != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Run(ctx)
		}()
	}

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}
	cancel()

	// Graceful shutdown.
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	wg.Wait()

	logger.Info("origination-service stopped")
	return nil
}
