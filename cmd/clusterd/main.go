// Command clusterd serves clustering results over HTTP.
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

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/fleetsense/clusterkit"
	"github.com/fleetsense/clusterkit/blobstore"
	minioblob "github.com/fleetsense/clusterkit/blobstore/minio"
	s3blob "github.com/fleetsense/clusterkit/blobstore/s3"
	"github.com/fleetsense/clusterkit/compute"
	"github.com/fleetsense/clusterkit/internal/resource"
	"github.com/fleetsense/clusterkit/resultstore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "clusterd",
		Short:         "Clustering analytics service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := DefaultConfig()
			if configPath != "" {
				var err error
				cfg, err = LoadConfig(configPath)
				if err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to yaml config file")
	return cmd
}

func run(ctx context.Context, cfg Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg)

	controller := resource.NewController(resource.Config{
		MaxLoadSlots:       cfg.Limits.LoadSlots,
		MaxComputeSlots:    cfg.Limits.ComputeSlots,
		IOLimitBytesPerSec: cfg.Limits.IOBytesPerSec,
	})

	datasetStore, err := newBlobStore(ctx, cfg.Dataset)
	if err != nil {
		return fmt.Errorf("dataset store: %w", err)
	}

	results, closeResults, err := newResultStore(ctx, cfg.Results, controller)
	if err != nil {
		return fmt.Errorf("result store: %w", err)
	}
	defer closeResults()

	computer := compute.Computer(compute.Local{Seed: cfg.Compute.Seed})
	if cfg.Compute.RemoteEndpoint != "" {
		computer = compute.Remote{Endpoint: cfg.Compute.RemoteEndpoint}
	}

	svc := clusterkit.New(datasetStore, results,
		clusterkit.WithLogger(logger),
		clusterkit.WithComputer(computer),
		clusterkit.WithTTL(time.Duration(cfg.Cache.TTL)),
		clusterkit.WithController(controller),
	)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           newHandler(svc, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return svc.Close(shutdownCtx)
}

func newLogger(cfg Config) *clusterkit.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	if cfg.Log.Format == "json" {
		return clusterkit.NewJSONLogger(level)
	}
	return clusterkit.NewTextLogger(level)
}

func newBlobStore(ctx context.Context, cfg StorageConfig) (blobstore.Store, error) {
	switch cfg.Backend {
	case "local":
		return blobstore.NewLocalStore(cfg.Path)
	case "s3":
		return s3blob.New(ctx, cfg.Bucket, cfg.Prefix)
	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return minioblob.NewStore(client, cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func newResultStore(ctx context.Context, cfg ResultsConfig, controller *resource.Controller) (resultstore.Store, func(), error) {
	if cfg.Backend == "badger" {
		store, err := resultstore.NewBadgerStore(resultstore.BadgerOptions{DataDir: cfg.Path})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	blobs, err := newBlobStore(ctx, cfg.StorageConfig)
	if err != nil {
		return nil, nil, err
	}
	blobs = blobstore.NewRateLimitedStore(blobs, controller)
	comp, ok := resultstore.CompressorByName(cfg.Compression)
	if !ok {
		return nil, nil, errors.New("unknown compression " + cfg.Compression)
	}
	return resultstore.NewBlobStore(blobs, nil, comp), func() {}, nil
}
