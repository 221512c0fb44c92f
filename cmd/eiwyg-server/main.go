// Command eiwyg-server is the PV stream server: it runs a simulated
// beamline instrument, fans live PV updates out to websocket clients,
// records time-series history for plot backfill, and advertises itself
// on the local network over mDNS.
//
// Usage:
//
//	eiwyg-server [flags]
//
// Flags:
//
//	-port int          Listen port (default 8080)
//	-name string       mDNS instance name (default "eiwyg-<hostname>")
//	-sim-config string YAML channel table (default: built-in beamline)
//	-capture string    Protocol capture file (CBOR), empty to disable
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-advertise         Advertise over mDNS (default true)
//
// Examples:
//
//	# Run with the built-in simulated beamline
//	eiwyg-server
//
//	# Run a custom channel table with debug logging
//	eiwyg-server -sim-config beamline.yaml -log-level debug
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deanSLAC/eiwyg/pkg/caplog"
	"github.com/deanSLAC/eiwyg/pkg/discovery"
	"github.com/deanSLAC/eiwyg/pkg/hub"
	"github.com/deanSLAC/eiwyg/pkg/instrument"
	"github.com/deanSLAC/eiwyg/pkg/pv"
	"github.com/deanSLAC/eiwyg/pkg/timeseries"
)

type config struct {
	Port      int
	Name      string
	SimConfig string
	Capture   string
	LogLevel  string
	Advertise bool
}

func main() {
	var cfg config
	flag.IntVar(&cfg.Port, "port", discovery.DefaultPort, "Listen port")
	flag.StringVar(&cfg.Name, "name", "", "mDNS instance name (default eiwyg-<hostname>)")
	flag.StringVar(&cfg.SimConfig, "sim-config", "", "YAML channel table (default: built-in beamline)")
	flag.StringVar(&cfg.Capture, "capture", "", "Protocol capture file (CBOR), empty to disable")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&cfg.Advertise, "advertise", true, "Advertise over mDNS")
	flag.Parse()

	logger := newLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	simCfg := instrument.DefaultSimConfig()
	if cfg.SimConfig != "" {
		var err error
		simCfg, err = instrument.LoadSimConfig(cfg.SimConfig)
		if err != nil {
			return err
		}
	}

	var capture caplog.Logger = caplog.NoopLogger{}
	if cfg.Capture != "" {
		fl, err := caplog.NewFileLogger(cfg.Capture)
		if err != nil {
			return err
		}
		defer fl.Close()
		capture = fl
		logger.Info("protocol capture enabled", "file", cfg.Capture)
	}

	sim, err := instrument.NewSim(simCfg, logger)
	if err != nil {
		return err
	}

	recorder := timeseries.NewRecorder(timeseries.DefaultMaxRawPoints)
	sim.Tap(func(u pv.Update) {
		recorder.Record(u.Name, u.Value, u.Timestamp)
	})

	sim.Start()
	defer sim.Stop()

	h := hub.New(sim, hub.Options{
		Logger:   logger,
		Capture:  capture,
		Recorder: recorder,
	})

	mux := http.NewServeMux()
	h.Routes(mux)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var advertiser *discovery.Advertiser
	if cfg.Advertise {
		name := cfg.Name
		if name == "" {
			hostname, _ := os.Hostname()
			name = "eiwyg-" + hostname
		}
		advertiser = discovery.NewAdvertiser(discovery.DefaultAdvertiserConfig())
		info := discovery.ServerInfo{Name: name, Port: cfg.Port, WSPath: "/ws"}
		if err := advertiser.Advertise(info); err != nil {
			logger.Warn("mdns advertising failed", "error", err)
			advertiser = nil
		} else {
			logger.Info("advertising", "instance", name, "service", discovery.ServiceType)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	if advertiser != nil {
		advertiser.Stop()
	}
	h.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func newLogger(level string) *slog.Logger {
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
