package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	appdb "github.com/Flarenzy/vpc-provisioner/internal/db"
	"github.com/Flarenzy/vpc-provisioner/internal/domain"
	"github.com/Flarenzy/vpc-provisioner/internal/dynamo"
	apihttp "github.com/Flarenzy/vpc-provisioner/internal/http"
	ec2provider "github.com/Flarenzy/vpc-provisioner/internal/provider/ec2"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

const shutdownTimeout = 5 * time.Second

// recordStore is a record backend that can also answer readiness probes.
type recordStore interface {
	domain.NetworkRepository
	apihttp.HealthChecker
}

func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// NewHandler builds the record store, the EC2 provider and the HTTP router.
// The returned cleanup releases the store and must be called once the
// handler is no longer used.
func NewHandler(ctx context.Context, cfg Config, logger *slog.Logger) (http.Handler, func(), error) {
	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	provider := ec2provider.NewProvider(ec2.NewFromConfig(awsCfg))

	service := domain.NewLoggingNetworkService(logger, domain.NewNetworkService(
		store,
		provider,
		domain.WithLogger(logger),
		domain.WithRollback(cfg.RollbackOnFailure),
	))

	api := apihttp.NewAPI(logger, store, service)
	return api.Router(), cleanup, nil
}

func openStore(ctx context.Context, cfg Config, logger *slog.Logger) (recordStore, func(), error) {
	switch cfg.StoreDriver {
	case DriverPostgres:
		pool, err := appdb.NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := appdb.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.InfoContext(ctx, "record store ready", "driver", cfg.StoreDriver)
		return appdb.NewNetworkRepository(pool), pool.Close, nil

	case DriverSQLite:
		store, err := appdb.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "record store ready", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("closing sqlite store", "err", err.Error())
			}
		}, nil

	case DriverDynamoDB:
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "record store ready", "driver", cfg.StoreDriver, "table", cfg.TableName)
		return dynamo.NewNetworkRepository(dynamodb.NewFromConfig(awsCfg), cfg.TableName), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func Run(ctx context.Context, cfg Config) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
	}
	return Serve(ctx, cfg, listener)
}

// Serve runs the API on listener until ctx is cancelled, then shuts the
// server down gracefully. The listener is owned by the server once serving
// starts.
func Serve(ctx context.Context, cfg Config, listener net.Listener) error {
	logger := NewLogger(cfg, os.Stdout)

	handler, cleanup, err := NewHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", listener.Addr().String(), "driver", cfg.StoreDriver)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if !ok {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
