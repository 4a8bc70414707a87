// Command pixelforge serves the image API: catalog listing, signed variant
// URLs and on-demand rendering backed by a variant cache.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pixelforge/pixelforge/api"
	"github.com/pixelforge/pixelforge/cache"
	"github.com/pixelforge/pixelforge/catalog"
	catalogfile "github.com/pixelforge/pixelforge/catalog/file"
	"github.com/pixelforge/pixelforge/config"
	"github.com/pixelforge/pixelforge/imageops"
	"github.com/pixelforge/pixelforge/imageops/native"
	"github.com/pixelforge/pixelforge/logging"
	"github.com/pixelforge/pixelforge/metrics"
	"github.com/pixelforge/pixelforge/prewarm"
	"github.com/pixelforge/pixelforge/render"
	"github.com/pixelforge/pixelforge/sign"
	"github.com/pixelforge/pixelforge/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, v, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logging.Init(cfg.Log)
	log := logging.Global().Named("pixelforge")
	defer log.Sync()

	// Engine diagnostics go through the service logger.
	imageops.InstallLogForwarder(func(msg string) {
		log.Warn("engine: " + msg)
	})

	config.Watch(v, func(next *config.Config) {
		logging.Init(next.Log)
		log.Info("log configuration reloaded")
	})

	collector := metrics.NewCollector()
	ops := imageops.NewOps(native.New(cfg.Imaging.Engine))

	originals, err := newStorage(cfg)
	if err != nil {
		return err
	}
	variants, closeCache, err := newCache(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	images, err := catalogfile.New(cfg.Storage.Manifest)
	if err != nil {
		return err
	}

	renderer := render.New(ops, originals, variants, collector, cfg.Cache.TTL, cfg.Imaging.Attribution)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Prewarm.Enabled {
		go runPrewarm(ctx, log, images, renderer, cfg.Prewarm)
	}

	handler := (&api.API{
		Catalog:         images,
		Renderer:        renderer,
		Log:             log,
		HMAC:            &sign.HMAC{Key: []byte(cfg.Server.HMACKey)},
		RootURL:         cfg.Server.RootURL,
		ImageServiceURL: cfg.Server.ImageServiceURL,
		MaxSize:         cfg.Imaging.MaxSize,
		BlurMin:         cfg.Imaging.BlurMin,
		BlurMax:         cfg.Imaging.BlurMax,
		Collector:       collector,
		RateLimit:       cfg.Server.RateLimit,
	}).Router()

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      http.TimeoutHandler(handler, cfg.Server.HandlerTimeout, "Something went wrong"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func newStorage(cfg *config.Config) (storage.Provider, error) {
	switch cfg.Storage.Backend {
	case "oss":
		return storage.NewOSSProvider(
			cfg.Storage.OSS.Endpoint,
			cfg.Storage.OSS.AccessKeyID,
			cfg.Storage.OSS.AccessKeySecret,
			cfg.Storage.OSS.Bucket,
			cfg.Storage.OSS.Prefix,
		)
	default:
		return storage.NewLocalProvider(cfg.Storage.Path)
	}
}

func newCache(cfg *config.Config) (cache.Store, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		store, err := cache.NewRedisStore(cfg.Cache.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store := cache.NewMemoryStore()
		return store, store.Close, nil
	}
}

func runPrewarm(ctx context.Context, log logging.Logger, images catalog.Provider, renderer *render.Renderer, cfg config.PrewarmConfig) {
	warmer := &prewarm.Prewarmer{
		Catalog:  images,
		Renderer: renderer,
		Log:      log.Named("prewarm"),
		Workers:  cfg.Workers,
		Sizes:    cfg.Sizes,
	}

	start := time.Now()
	done, err := warmer.Run(ctx)
	if err != nil {
		log.WithError(err).Warn("prewarm aborted", zap.Int("rendered", done))
		return
	}
	log.Info("prewarm finished",
		zap.Int("rendered", done),
		zap.Duration("took", time.Since(start)),
	)
}
