// Command virel-gated runs a VIREL gate daemon.
//
// The daemon hosts the safety state machine for a fixed set of domains,
// serves the CBOR wire protocol over TCP, drives the provisional
// countdown from a wall-clock ticker, and persists the committed mode
// and counters across restarts.
//
// Usage:
//
//	virel-gated -config /etc/virel/gate.yaml [flags]
//
// Flags:
//
//	-config string     Configuration file path (required)
//	-name string       Instance name for mDNS announcement (default: hostname)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start a gate with three domains
//	virel-gated -config gate.yaml
//
//	# Verbose logging
//	virel-gated -config gate.yaml -log-level debug
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/virel-protocol/virel-go/pkg/clock"
	"github.com/virel-protocol/virel-go/pkg/config"
	"github.com/virel-protocol/virel-go/pkg/discovery"
	"github.com/virel-protocol/virel-go/pkg/gate"
	"github.com/virel-protocol/virel-go/pkg/gateway"
	"github.com/virel-protocol/virel-go/pkg/log"
	"github.com/virel-protocol/virel-go/pkg/persistence"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path (required)")
	name := flag.String("name", "", "Instance name for mDNS announcement (default: hostname)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required")
		flag.Usage()
		os.Exit(1)
	}

	slogger := newSlogger(*logLevel)

	if err := run(*configPath, *name, slogger); err != nil {
		slogger.Error("gate daemon failed", "error", err)
		os.Exit(1)
	}
}

func newSlogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(configPath, name string, slogger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Audit events always flow to slog; the CBOR file log is optional.
	loggers := []log.Logger{log.NewSlogAdapter(slogger)}
	if cfg.AuditLog != "" {
		fileLogger, err := log.NewFileLogger(cfg.AuditLog)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer fileLogger.Close()
		loggers = append(loggers, fileLogger)
	}
	auditLogger := log.NewMultiLogger(loggers...)

	gateCfg := gate.Config{
		Domains:    cfg.Domains,
		EpochMax:   cfg.EpochMax,
		LamportMax: cfg.LamportMax,
		Budget:     cfg.Budget,
		Logger:     auditLogger,
	}
	if cfg.InitialMode == "SAFE_ON" {
		gateCfg.InitialMode = gate.ModeSafeOn
	}

	// Persisted counters and mode take precedence over the configured
	// initial mode.
	var store *persistence.GateStateStore
	if cfg.StateFile != "" {
		store = persistence.NewGateStateStore(cfg.StateFile)
		state, err := store.Load()
		if err != nil {
			return fmt.Errorf("loading state: %w", err)
		}
		if state != nil {
			gateCfg.Epoch = state.Epoch
			gateCfg.Lamport = state.Lamport
			if state.Mode == gate.ModeSafeOn.String() {
				gateCfg.InitialMode = gate.ModeSafeOn
			} else {
				gateCfg.InitialMode = gate.ModeOperational
			}
			slogger.Info("restored persisted state",
				"mode", state.Mode, "epoch", state.Epoch, "lamport", state.Lamport)
		}
	}

	g, err := gate.New(gateCfg)
	if err != nil {
		return err
	}

	var tlsConfig *tls.Config
	if cfg.TLSCert != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("loading TLS key pair: %w", err)
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS13,
		}
	}

	gw, err := gateway.New(gateway.Config{
		Gate:          g,
		ListenAddress: cfg.Listen,
		TLSConfig:     tlsConfig,
		Logger:        auditLogger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := gw.Start(ctx); err != nil {
		return err
	}
	defer gw.Stop()

	slogger.Info("gate listening",
		"address", gw.Addr().String(),
		"domains", len(cfg.Domains),
		"mode", g.Mode().String(),
		"tls", tlsConfig != nil)

	var announcer *discovery.Announcer
	if cfg.Announce {
		announcer, err = startAnnouncer(cfg, g, gw.Addr(), name)
		if err != nil {
			// Discovery is best-effort; a gate without mDNS still fences.
			slogger.Warn("mDNS announcement failed", "error", err)
		} else {
			defer announcer.Shutdown()
		}
	}

	// Committed mode changes update the persisted state and the mDNS
	// TXT records.
	g.OnModeChange(func(old, new gate.Mode, snap clock.Snapshot) {
		slogger.Info("mode committed",
			"old", old.String(), "new", new.String(),
			"epoch", snap.Epoch, "lamport", snap.Lamport)
		saveState(store, g, slogger)
		if announcer != nil {
			if err := announcer.UpdateMode(new.String(), snap.Epoch); err != nil {
				slogger.Warn("mDNS update failed", "error", err)
			}
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	ticking := true
	for {
		select {
		case <-ticker.C:
			if !ticking {
				continue
			}
			if err := g.Tick(); err != nil {
				if errors.Is(err, gate.ErrProtocolHalted) {
					slogger.Error("epoch range exhausted, protocol halted in SAFE_ON")
					saveState(store, g, slogger)
					ticking = false
					continue
				}
				slogger.Warn("tick failed", "error", err)
			}

		case sig := <-sigCh:
			slogger.Info("shutting down", "signal", sig.String())
			saveState(store, g, slogger)
			return nil
		}
	}
}

func startAnnouncer(cfg *config.Config, g *gate.Gate, addr net.Addr, name string) (*discovery.Announcer, error) {
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "virel-gate"
		}
		name = hostname
	}

	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, err
	}

	snap := g.Snapshot()
	announcer := discovery.NewAnnouncer(discovery.DefaultAnnouncerConfig())
	if err := announcer.Announce(&discovery.GateInfo{
		Name:    name,
		Port:    uint16(port),
		Mode:    g.Mode().String(),
		Epoch:   snap.Epoch,
		Domains: len(cfg.Domains),
	}); err != nil {
		return nil, err
	}
	return announcer, nil
}

func saveState(store *persistence.GateStateStore, g *gate.Gate, slogger *slog.Logger) {
	if store == nil {
		return
	}
	snap := g.Snapshot()
	err := store.Save(&persistence.GateState{
		Mode:    g.Mode().String(),
		Epoch:   snap.Epoch,
		Lamport: snap.Lamport,
		Halted:  g.Halted(),
	})
	if err != nil {
		slogger.Warn("state save failed", "error", err)
	}
}
