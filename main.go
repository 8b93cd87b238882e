package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/goodfood/basketservice/basket"
	"github.com/goodfood/basketservice/basketstore"
	"github.com/goodfood/basketservice/catalog"
	"github.com/goodfood/basketservice/web"
)

const (
	defaultPort         = "8080"
	defaultOTLPEndpoint = "localhost:4317"
)

func main() {
	ctx := context.Background()

	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{
		FieldMap: log.FieldMap{
			log.FieldKeyTime:  "timestamp",
			log.FieldKeyLevel: "severity",
			log.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	})
	logger.SetOutput(os.Stdout)
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	tp, err := initTracerProvider(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize tracer provider")
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("error shutting down tracer provider")
		}
	}()

	redisAddr := mustMapEnv("REDIS_ADDR")
	if !strings.Contains(redisAddr, ":") {
		redisAddr = redisAddr + ":6379"
	}
	store := basketstore.NewRedisBasketStore(redisAddr)
	if err := store.Initialize(ctx); err != nil {
		logger.WithError(err).Fatal("failed to initialize basket store")
	}
	logger.WithField("addr", redisAddr).Info("basket store ready")

	catalogURL := mustMapEnv("CATALOG_SERVICE_URL")
	svc := basket.NewService(store, catalog.NewClient(catalogURL))

	srvPort := os.Getenv("PORT")
	if srvPort == "" {
		srvPort = defaultPort
	}

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("basketservice"))
	server := web.NewServer(svc, store, logger)
	server.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + srvPort,
		Handler:           server.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("received shutdown signal, draining connections")

		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown error")
		}
	}()

	logger.WithField("port", srvPort).Info("basket service listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("server error")
	}
}

func mustMapEnv(envKey string) string {
	v := os.Getenv(envKey)
	if v == "" {
		log.Fatalf("environment variable %q not set", envKey)
	}
	return v
}

// initTracerProvider configures the OTLP trace exporter. The collector
// endpoint comes from OTEL_EXPORTER_OTLP_ENDPOINT, e.g. otel-collector:4317.
func initTracerProvider(ctx context.Context) (*sdktrace.TracerProvider, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("basketservice"),
			semconv.ServiceVersionKey.String("v1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	bsp := sdktrace.NewBatchSpanProcessor(exporter)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}
