package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/laurel/config"
	auditlogrepo "github.com/Ramsey-B/laurel/internal/repositories/auditlog"
	documentrepo "github.com/Ramsey-B/laurel/internal/repositories/document"
	grouprepo "github.com/Ramsey-B/laurel/internal/repositories/group"
	listitemrepo "github.com/Ramsey-B/laurel/internal/repositories/listitem"
	locationrepo "github.com/Ramsey-B/laurel/internal/repositories/location"
	occasionrepo "github.com/Ramsey-B/laurel/internal/repositories/occasion"
	personrepo "github.com/Ramsey-B/laurel/internal/repositories/person"
	recordrepo "github.com/Ramsey-B/laurel/internal/repositories/record"
	recordtyperepo "github.com/Ramsey-B/laurel/internal/repositories/recordtype"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/events"
	"github.com/Ramsey-B/laurel/pkg/kafka"
	"github.com/Ramsey-B/laurel/pkg/middleware"
	"github.com/Ramsey-B/laurel/pkg/records"
	"github.com/Ramsey-B/laurel/pkg/resolver"
	calendarroutes "github.com/Ramsey-B/laurel/pkg/routes/calendar"
	healthroutes "github.com/Ramsey-B/laurel/pkg/routes/health"
	recordroutes "github.com/Ramsey-B/laurel/pkg/routes/record"
	recordtyperoutes "github.com/Ramsey-B/laurel/pkg/routes/recordtype"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/Ramsey-B/laurel/pkg/tracing/exporters"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := setupTracing(ctx, cfg, logger)
	defer shutdownTracing()

	db, err := connectWithRetry(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := runMigrations(cfg, db, logger); err != nil {
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	var producer *kafka.Producer
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
	}
	emitter := events.NewEmitter(producer, logger)

	recordTypes := recordtyperepo.NewRepository(db, logger)
	recs := recordrepo.NewRepository(db, logger)
	occasions := occasionrepo.NewRepository(db, logger)
	auditLogs := auditlogrepo.NewRepository(db, logger)
	people := personrepo.NewRepository(db, logger)
	groups := grouprepo.NewRepository(db, logger)
	locations := locationrepo.NewRepository(db, logger)
	documents := documentrepo.NewRepository(db, logger)
	listItems := listitemrepo.NewRepository(db, logger)

	res := resolver.NewResolver(people, groups, locations, documents, listItems, recs, logger)
	recordsService := records.NewService(recordTypes, recs, occasions, auditLogs, people, res, emitter, db, logger)

	if err := registerDependencies(logger, recordTypes, recordsService); err != nil {
		logger.WithError(err).Error("failed to build DI container")
		os.Exit(1)
	}

	e := newServer(cfg, logger)

	api := e.Group("/api/v1")
	recordtyperoutes.Register(api.Group("/record-types"))
	recordroutes.Register(api)
	calendarroutes.Register(api.Group("/calendar"))

	checker := healthroutes.NewChecker(db, os.Getenv("APP_VERSION"))
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithFields(map[string]any{"addr": addr}).Info("starting http server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server stopped")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	checker.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down http server cleanly")
	}
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func setupTracing(ctx context.Context, cfg config.Config, logger ectologger.Logger) func() {
	var opts []sdktrace.TracerProviderOption
	if cfg.OTLPEnabled {
		exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Insecure: cfg.OTLPInsecure,
		})
		if err != nil {
			logger.WithError(err).Error("failed to create OTLP exporter; traces disabled")
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	} else if cfg.PrettyLogs {
		if exporter, err := exporters.NewConsoleExporter(); err == nil {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}
}

func connectWithRetry(ctx context.Context, cfg config.Config, logger ectologger.Logger) (database.DB, error) {
	connectCfg := database.ConnectConfig{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}

	var db database.DB
	var err error
	for attempt := 1; attempt <= cfg.StartupMaxAttempts; attempt++ {
		db, err = database.Connect(ctx, connectCfg, logger)
		if err == nil {
			return db, nil
		}
		logger.WithError(err).Warnf("database connection attempt %d/%d failed", attempt, cfg.StartupMaxAttempts)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, err
}

func runMigrations(cfg config.Config, db database.DB, logger ectologger.Logger) error {
	instance, ok := db.(*database.DatabaseInstance)
	if !ok {
		return fmt.Errorf("database does not expose a migration driver")
	}

	driver, err := migratepg.WithInstance(instance.DB.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})

	return migrations.Migrate(cfg.DatabaseName, driver)
}

func registerDependencies(
	logger ectologger.Logger,
	recordTypes recordtyperepo.RecordTypeRepository,
	recordsService *records.Service,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[recordtyperepo.RecordTypeRepository](container, recordTypes); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*records.Service](container, recordsService); err != nil {
		return err
	}

	return nil
}

func newServer(cfg config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	return e
}
