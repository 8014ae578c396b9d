// Command lodbench drives the visibility cache over synthetic datasets and
// prints per-tier counts. It optionally serves Prometheus metrics and exports
// traces over OTLP.
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

	"github.com/nmxmxh/atomview/internal/config"
	"github.com/nmxmxh/atomview/internal/viewer"
	"github.com/nmxmxh/atomview/pkg/logger"
	"github.com/nmxmxh/atomview/pkg/metrics"
	"github.com/nmxmxh/atomview/pkg/tracing"
	"go.uber.org/zap"
)

func main() {
	if err := mainErr(); err != nil {
		fmt.Fprintln(os.Stderr, "lodbench:", err)
		os.Exit(1)
	}
}

func mainErr() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	counts := flag.String("counts", "2,500,5000,50000", "comma separated dataset sizes")
	frames := flag.Int("frames", 120, "frames per dataset")
	delta := flag.Float64("dt", 1.0/60, "animation step per moving frame")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "serve /metrics on this address and wait for a signal")
	flag.Parse()

	sizes, err := parseCounts(*counts)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingCfg := tracing.DefaultConfig()
	tracingCfg.ServiceName = cfg.AppName
	tracingCfg.Environment = cfg.AppEnv
	tracingCfg.Endpoint = cfg.OTLPEndpoint
	_, shutdownTracing, err := tracing.Init(tracingCfg)
	if err != nil {
		log.Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				log.Warn("Failed to shutdown tracing", zap.Error(err))
			}
		}()
	}

	var srv *http.Server
	if *metricsAddr != "" {
		metrics.CollectSystemMetrics(ctx, 15*time.Second)
		srv = metrics.NewServer(*metricsAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Metrics server exited", zap.Error(err))
			}
		}()
		log.Info("Serving metrics", zap.String("addr", *metricsAddr))
	}

	reg := viewer.NewRegistry(log)
	results, err := run(ctx, reg, benchConfig{
		Counts:    sizes,
		Frames:    *frames,
		Delta:     *delta,
		ChunkSize: cfg.ChunkSize,
		Options:   cfg.SceneOptions(""),
	}, log)
	if err != nil {
		return err
	}
	if err := render(os.Stdout, results); err != nil {
		return err
	}

	if srv != nil {
		<-ctx.Done()
		log.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
	return nil
}
