// Package main - Entry point for the plan-picker session server
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

	"plan-picker/adapters/catalogfile"
	"plan-picker/adapters/webhook"
	"plan-picker/api"
	"plan-picker/core/catalog"
	"plan-picker/internal/config"
	"plan-picker/internal/logging"
)

const version = "0.1.0"

// termsSource applies the configured terms of service link to every offering
type termsSource struct {
	*catalogfile.Source
	termsURL string
}

func (s termsSource) Current() *catalog.Offering {
	return s.Source.Current().WithTermsURL(s.termsURL)
}

func main() {
	cfgPath := flag.String("config", "", "Config file (default is $HOME/.plan-picker.json)")
	envFile := flag.String("env-file", ".env", "dotenv file with PLAN_PICKER_* overrides")
	addr := flag.String("addr", "", "Server address (overrides config)")
	catalogPath := flag.String("catalog", "", "Catalog file (overrides config)")
	watch := flag.Bool("watch", false, "Reload the catalog file when it changes")
	flag.Parse()

	if err := run(*cfgPath, *envFile, *addr, *catalogPath, *watch); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, envFile, addr, catalogPath string, watch bool) error {
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.LoadEnv(envFile); err != nil {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}
	cfg.ApplyEnv()
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if catalogPath != "" {
		cfg.Catalog.Path = catalogPath
	}
	if watch {
		cfg.Catalog.Watch = true
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logging.Sync()
	log := logging.Named("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := catalogfile.NewSource(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	metrics := api.NewMetrics()
	source.OnReload(func(_ *catalog.Offering, err error) {
		metrics.RecordCatalogReload(err)
	})
	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		if err := source.Watch(ctx); err != nil {
			return fmt.Errorf("watching catalog: %w", err)
		}
	}

	ttl, err := cfg.Server.SessionIdleTimeout()
	if err != nil {
		return fmt.Errorf("parsing server.session_ttl: %w", err)
	}

	opts := []api.Option{api.WithMetrics(metrics), api.WithSessionTTL(ttl)}
	if cfg.Webhook.URL != "" {
		hookCfg := webhook.DefaultConfig(cfg.Webhook.URL)
		hookCfg.Secret = cfg.Webhook.Secret
		hookCfg.RetryCount = cfg.Webhook.Retries
		if cfg.Webhook.Format != "" {
			hookCfg.Format = webhook.Format(cfg.Webhook.Format)
		}
		dispatcher := webhook.NewDispatcher(webhook.New(hookCfg), 256)
		dispatcher.Start(ctx)
		defer dispatcher.Close()
		opts = append(opts, api.WithNotifier(dispatcher))
		log.Info("forwarding decisions to webhook", zap.String("format", string(hookCfg.Format)))
	}

	apiServer := api.NewServer(version, termsSource{Source: source, termsURL: cfg.Picker.TermsURL}, opts...)
	if ttl > 0 {
		go apiServer.Sessions().RunReaper(ctx, reapInterval(ttl))
	}

	// Create main mux
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiServer))
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("plan-picker server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("version", version),
			zap.String("catalog", cfg.Catalog.Path),
			zap.Bool("watch", cfg.Catalog.Watch))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Int("open_sessions", apiServer.Sessions().Len()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// reapInterval checks twice per TTL, at most once a minute
func reapInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 2; interval < time.Minute {
		return interval
	}
	return time.Minute
}
