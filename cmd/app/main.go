package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coin_tracker/internal/app"
	"coin_tracker/internal/infra"
	"coin_tracker/internal/web"

	"golang.org/x/sync/errgroup"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", infra.DefaultConfigPath, "path to config.yaml")
	flag.Parse()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config

	// 2. Pprof Server (for performance profiling)
	if cfg.Server.EnablePprof {
		go func() {
			slog.Info("🕵️ Pprof server started", slog.String("addr", cfg.Server.PprofAddr))
			if err := http.ListenAndServe(cfg.Server.PprofAddr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := web.NewServer(cfg.Server.Addr, cfg.App.Name, bootstrap.Market, bootstrap.Icons, bootstrap.Metrics)
	if err != nil {
		slog.Error("❌ Web server setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	// 4. Icon sync follows every market refresh
	g.Go(func() error {
		bootstrap.RunIconSync(gctx)
		return nil
	})

	// 5. Market fetch (once, or on the configured interval)
	g.Go(func() error {
		bootstrap.Market.Run(gctx, bootstrap.Source, bootstrap.RefreshInterval())
		return nil
	})

	// 6. Web server
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("👋 Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	slog.InfoContext(ctx, "✨ Coin Tracker operational. Press Ctrl+C to exit.", slog.String("addr", cfg.Server.Addr))

	if err := g.Wait(); err != nil {
		slog.Error("Exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}
