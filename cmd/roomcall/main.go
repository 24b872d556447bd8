// Roomcall is a rule-based turn resolver for voice and touch home control.
// It maps spoken slots and panel taps to a domain, room and target, and asks
// an external renderer to answer.
//
// Usage:
//
//	roomcall [flags]
//	roomcall --config /path/to/roomcall.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nadzzz/roomcall/internal/catalog"
	"github.com/nadzzz/roomcall/internal/config"
	"github.com/nadzzz/roomcall/internal/dispatch"
	"github.com/nadzzz/roomcall/internal/health"
	"github.com/nadzzz/roomcall/internal/renderer"
	"github.com/nadzzz/roomcall/internal/resolver"
	"github.com/nadzzz/roomcall/internal/store"
	"github.com/nadzzz/roomcall/internal/transport"
	grpctransport "github.com/nadzzz/roomcall/internal/transport/grpc"
	httptransport "github.com/nadzzz/roomcall/internal/transport/http"
	mqtttransport "github.com/nadzzz/roomcall/internal/transport/mqtt"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/roomcall.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("roomcall %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("roomcall starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The daemon keeps running without catalog or store so clients get a
	// fixed failure sentence and /readyz reports what is missing.
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		slog.Error("catalog not loaded", "path", cfg.Catalog.Path, "error", err)
	} else {
		slog.Info("catalog loaded", "path", cfg.Catalog.Path, "rooms", len(cat.Rooms))
	}

	kv := openStore(ctx, cfg.Store)
	if kv != nil {
		defer kv.Close()
	}
	devices := store.SelectDeviceMap(ctx, kv, cfg.Store.DeviceMapFile)

	rend := renderer.NewHTTP(cfg.Renderer.Endpoint, cfg.Renderer.Routes, cfg.Renderer.Token, cfg.Renderer.Timeout)

	dispatcher, err := dispatch.New(cat, kv, devices, rend, dispatch.Options{
		Resolver: resolver.Options{
			PriorityRooms: cfg.Resolver.PriorityRooms,
			TabDomains:    cfg.Resolver.TabDomains,
		},
		TabCacheSize: cfg.Catalog.TabCacheSize,
		Onboarding:   cfg.Onboarding.Enabled,
	})
	if err != nil {
		slog.Error("failed to create dispatcher", "error", err)
		os.Exit(1)
	}

	// Initialize enabled transports.
	var transports []transport.Transport

	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port))
	}
	if m := cfg.Transports.MQTT; m.Enabled {
		transports = append(transports, mqtttransport.New(mqtttransport.Options{
			Broker:      m.Broker,
			Topic:       m.Topic,
			ClientID:    m.ClientID,
			Username:    m.Username,
			Password:    m.Password,
			QoS:         byte(m.QoS),
			ReplyPrefix: m.ReplyPrefix,
		}))
	}

	if len(transports) == 0 {
		slog.Error("no transports enabled, enable at least one in config")
		os.Exit(1)
	}

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort)
	healthServer.AddCheck("catalog", func(context.Context) error {
		if cat == nil {
			return catalog.ErrNoCatalog
		}
		return nil
	})
	healthServer.AddCheck("store", func(ctx context.Context) error {
		if kv == nil {
			return store.ErrUnavailable
		}
		return kv.Ping(ctx)
	})
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, dispatcher.Handle); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("roomcall ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort,
		"onboarding", cfg.Onboarding.Enabled)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("roomcall stopped")
}

// openStore returns the configured state store, or nil when it cannot be
// reached.
func openStore(ctx context.Context, cfg config.StoreConfig) store.KV {
	switch cfg.Backend {
	case "redis":
		r, err := store.NewRedis(ctx, cfg.URL, cfg.Prefix)
		if err != nil {
			slog.Error("state store unavailable", "backend", cfg.Backend, "error", err)
			return nil
		}
		return r
	default:
		slog.Info("using in-memory state store, state is lost on restart")
		return store.NewMemory()
	}
}
