// @title Analytics-Service API
// @version 1.0.0
// @description Temperature analytics computation: read the user readings, compute and save max, min and average
// @BasePath /
// @accept json
// @produce json
// @schemes https

// @securityDefinitions.apikey JWT
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mdblp/analytics-service/api"
	"github.com/mdblp/analytics-service/auth"
	"github.com/mdblp/analytics-service/config"
	"github.com/mdblp/analytics-service/infrastructure"
	"github.com/mdblp/analytics-service/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	muxprom "gitlab.com/msvechla/mux-prometheus/pkg/middleware"
)

const shutdownTimeout = 10 * time.Second

// snapshotStore the configured snapshot repository
type snapshotStore interface {
	usecase.SnapshotRepository
	usecase.Pinger
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Problem loading config")
	}
	logger.SetLevel(cfg.LogLevel)

	authClient, err := auth.NewClient(cfg.JWTSecret)
	if err != nil {
		logger.WithError(err).Fatal("Problem creating the auth client")
	}

	/*
	 * Stores setup
	 */
	db, err := infrastructure.OpenMySQL(infrastructure.MySQLConfig{
		Host:     cfg.MySQLHost,
		Port:     cfg.MySQLPort,
		User:     cfg.MySQLUser,
		Password: cfg.MySQLPassword,
		Database: cfg.MySQLDatabase,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		logger.WithError(err).Fatal("Problem opening the readings database")
	}
	readingRepository := infrastructure.NewReadingMySQLRepository(db)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	snapshotRepository, closeSnapshots, err := newSnapshotStore(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		readingRepository.Close()
		logger.WithError(err).Fatal("Problem creating the snapshot store")
	}

	/*
	 * Instrumentation setup
	 */
	instrumentation := muxprom.NewCustomInstrumentation(true, "dblp", "analytics", prometheus.DefBuckets, nil, prometheus.DefaultRegisterer)
	rtr := mux.NewRouter()
	rtr.Use(instrumentation.Middleware)
	rtr.Path("/metrics").Handler(promhttp.Handler())

	/*
	 * Analytics-Api setup
	 */
	analytics := usecase.NewAnalytics(logger, readingRepository, snapshotRepository, cfg.StoreTimeout)
	analyticsAPI := api.InitAPI(analytics, authClient, logger, cfg.StoreTimeout,
		api.NamedStore{Name: "mysql", Store: readingRepository},
		api.NamedStore{Name: cfg.SnapshotStore, Store: snapshotRepository},
	)
	analyticsAPI.SetHandlers("", rtr)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.CORS(cfg.CORSAllowedOrigins)(handlers.CompressHandler(rtr)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("analytics-service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Problem running the http server")
		}
	}()

	// Wait for SIGINT (Ctrl+C) or SIGTERM to stop the service
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	logger.Info("stopping analytics-service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http server shutdown")
	}
	if err := closeSnapshots(shutdownCtx); err != nil {
		logger.WithError(err).Error("snapshot store close")
	}
	if err := readingRepository.Close(); err != nil {
		logger.WithError(err).Error("readings database close")
	}
}

func newSnapshotStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (snapshotStore, func(context.Context) error, error) {
	if cfg.SnapshotStore == config.SnapshotStoreS3 {
		s3Client, err := newS3Client(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		repository, err := infrastructure.NewSnapshotS3Repository(s3Client, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, nil, err
		}
		return repository, func(context.Context) error { return nil }, nil
	}

	repository, err := infrastructure.NewSnapshotMongoRepository(infrastructure.MongoConfig{
		URI:        cfg.MongoURI,
		Database:   cfg.MongoDatabase,
		Collection: cfg.MongoCollection,
		Timeout:    cfg.StoreTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := repository.Start(ctx); err != nil {
		return nil, nil, err
	}
	return repository, repository.Close, nil
}

func newS3Client(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*s3.Client, error) {
	url := cfg.S3EndpointURL
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if url != "" {
			return aws.Endpoint{
				PartitionID:       "aws",
				URL:               url,
				SigningRegion:     region,
				HostnameImmutable: true,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})
	if url != "" {
		logger.WithField("endpoint", url).Info("Using custom s3 endpoint")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithEndpointResolverWithOptions(customResolver), awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg), nil
}
