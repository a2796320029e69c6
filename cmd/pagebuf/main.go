package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mqnguyen/pagebuf/internal"
	"github.com/mqnguyen/pagebuf/internal/bufferpool"
	"github.com/mqnguyen/pagebuf/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Server.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("pagebuf failed", zap.Error(err))
	}
}

func run(cfg *internal.PagebufConfig, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	metrics := bufferpool.NewMetrics(reg)

	if cfg.Server.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		logger.Info("serving metrics", zap.String("addr", addr))
	}

	fs := afero.NewOsFs()
	path := filepath.Join(cfg.Storage.Workdir, cfg.AppName+".db")
	file, err := storage.Open(fs, path, cfg.Storage.PageSize)
	if err != nil {
		return err
	}
	defer file.Close()

	pool := bufferpool.New(cfg.Storage.PoolSize, cfg.Storage.PageSize, logger, metrics)

	// Small workout: allocate a page, write a payload, flush it back and read
	// it again through the cache.
	pageNo, page, err := pool.AllocatePage(file)
	if err != nil {
		return err
	}
	if err := page.Write(0, []byte("hello from pagebuf")); err != nil {
		return err
	}
	if err := pool.UnpinPage(file, pageNo, true); err != nil {
		return err
	}
	if err := pool.FlushFile(file); err != nil {
		return err
	}

	page, err = pool.FetchPage(file, pageNo)
	if err != nil {
		return err
	}
	payload, err := page.Read(0, 18)
	if err != nil {
		return err
	}
	logger.Info("round trip complete",
		zap.Uint32("page", pageNo),
		zap.ByteString("payload", payload))
	if err := pool.UnpinPage(file, pageNo, false); err != nil {
		return err
	}

	return pool.Dump(os.Stdout)
}
