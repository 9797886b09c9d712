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
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/addressbook"
	"github.com/Ramsey-B/fern/internal/repositories/contact"
	"github.com/Ramsey-B/fern/internal/repositories/mailinglist"
	"github.com/Ramsey-B/fern/pkg/contacts"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/dedup"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/ingest"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/book"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/session"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	tp := initTracing(cfg)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("service exited with error")
		os.Exit(1)
	}
}

func initTracing(cfg config.Config) *sdktrace.TracerProvider {
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.AppName)),
	)
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	tracing.SetTracer(otel.Tracer(cfg.AppName))
	return tp
}

func newLogger(cfg config.Config) (ectologger.Logger, error) {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func run(ctx context.Context, cfg config.Config, log ectologger.Logger) error {
	boot := startup.NewStartup(log, cfg.StartupMaxAttempts)

	dbDep := newDatabaseDependency(cfg, log)
	boot.AddDependency(dbDep)
	if err := boot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := boot.Stop(stopCtx); err != nil {
			log.WithError(err).Error("failed to stop dependencies")
		}
	}()

	sqlxDB := dbDep.DB()
	db := database.NewDatabaseInstance(sqlxDB, log)

	// Repositories and the contact store
	bookRepo := addressbook.NewRepository(db, log)
	contactRepo := contact.NewRepository(db, log)
	listRepo := mailinglist.NewRepository(db, log)
	store := contacts.NewPostgresStore(bookRepo, contactRepo, listRepo, log)

	// Event emission
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, log)
	defer producer.Close()
	emitter := events.NewEmitter(producer, log)

	manager := dedup.NewManager(log, store, emitter, dedup.Options{
		NationalTrunkPrefix:     cfg.DefaultNationalTrunkPrefix,
		InternationalCallPrefix: cfg.DefaultInternationalCallPrefix,
		CountryCallingCode:      cfg.DefaultCountryCallingCode,
		YieldBudget:             time.Duration(cfg.SessionYieldBudgetMs) * time.Millisecond,
	})

	// Import consumer
	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		processor := ingest.NewProcessor(log, store, emitter)
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaInputTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, log, processor.Handle)
		boot.AddDependency(&consumerDependency{consumer: consumer})
		if err := boot.Start(ctx); err != nil {
			return err
		}
	}

	if err := registerDependencies(log, db, bookRepo, contactRepo, listRepo, store, manager); err != nil {
		return err
	}

	e := buildServer(cfg, log, sqlxDB, consumer)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("failed to shut down http server")
		}
	}()

	log.WithField("port", cfg.Port).Info("starting http server")
	if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func registerDependencies(
	log ectologger.Logger,
	db database.DB,
	bookRepo *addressbook.Repository,
	contactRepo *contact.Repository,
	listRepo *mailinglist.Repository,
	store *contacts.PostgresStore,
	manager *dedup.Manager,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, log); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*addressbook.Repository](container, bookRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*contact.Repository](container, contactRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*mailinglist.Repository](container, listRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*contacts.PostgresStore](container, store); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*dedup.Manager](container, manager)
}

func buildServer(cfg config.Config, log ectologger.Logger, db *sqlx.DB, consumer *kafka.Consumer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(log))

	var consumerHealth interface{ Health() bool }
	if consumer != nil {
		consumerHealth = consumer
	}
	checker := health.NewChecker(db, consumerHealth, version)
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	api := e.Group("/api/v1")
	book.Register(api.Group("/books"))
	session.Register(api.Group("/sessions"))

	return e
}
