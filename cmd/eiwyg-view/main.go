// Command eiwyg-view is a terminal dashboard for a PV stream server.
// It loads a widget layout, subscribes to the PVs the widgets need,
// backfills plots from the server's history endpoint, and keeps every
// widget live across reconnects.
//
// Usage:
//
//	eiwyg-view [flags]
//
// Flags:
//
//	-url string        Server websocket URL (default "ws://localhost:8080/ws")
//	-dashboard string  Dashboard layout JSON (default: built-in layout)
//	-discover          Find a server via mDNS instead of -url
//	-watch             Render periodically instead of the interactive prompt
//	-interval duration Render interval in watch mode (default 2s)
//	-capture string    Protocol capture file (CBOR), empty to disable
//	-log-level string  Log level: debug, info, warn, error (default "warn")
//
// Examples:
//
//	# Interactive prompt against a local server
//	eiwyg-view
//
//	# Discover a server on the LAN and watch a custom layout
//	eiwyg-view -discover -dashboard beamline.json -watch
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/deanSLAC/eiwyg/pkg/caplog"
	"github.com/deanSLAC/eiwyg/pkg/demux"
	"github.com/deanSLAC/eiwyg/pkg/discovery"
	"github.com/deanSLAC/eiwyg/pkg/history"
	"github.com/deanSLAC/eiwyg/pkg/pv"
	"github.com/deanSLAC/eiwyg/pkg/registry"
	"github.com/deanSLAC/eiwyg/pkg/session"
	"github.com/deanSLAC/eiwyg/pkg/timeseries"
	"github.com/deanSLAC/eiwyg/pkg/widget"
)

type config struct {
	URL       string
	Dashboard string
	Discover  bool
	Watch     bool
	Interval  time.Duration
	Capture   string
	LogLevel  string
}

func main() {
	var cfg config
	flag.StringVar(&cfg.URL, "url", "ws://localhost:8080/ws", "Server websocket URL")
	flag.StringVar(&cfg.Dashboard, "dashboard", "", "Dashboard layout JSON (default: built-in layout)")
	flag.BoolVar(&cfg.Discover, "discover", false, "Find a server via mDNS instead of -url")
	flag.BoolVar(&cfg.Watch, "watch", false, "Render periodically instead of the interactive prompt")
	flag.DurationVar(&cfg.Interval, "interval", 2*time.Second, "Render interval in watch mode")
	flag.StringVar(&cfg.Capture, "capture", "", "Protocol capture file (CBOR), empty to disable")
	flag.StringVar(&cfg.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.Parse()

	logger := newLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("viewer failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	if cfg.Discover {
		url, err := discoverServer(logger)
		if err != nil {
			return err
		}
		cfg.URL = url
	}

	dash := DefaultDashboard()
	if cfg.Dashboard != "" {
		var err error
		dash, err = LoadDashboard(cfg.Dashboard)
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
	}

	reg := registry.New()
	router := demux.NewRouter()

	// The session exists before the widgets so widget put functions can
	// close over it; writes before the session opens are dropped.
	var sess *session.Session
	putFn := func(pvName string, value any) error {
		return sess.Put(pvName, value)
	}

	kinds := widget.DefaultRegistry()
	widgets := make([]widget.Widget, 0, len(dash.Widgets))
	for _, def := range dash.Widgets {
		w, err := kinds.New(def, putFn)
		if err != nil {
			return fmt.Errorf("widget %q: %w", def.ID, err)
		}
		widgets = append(widgets, w)
		router.Add(w)
	}

	histClient := history.NewClient(httpBase(cfg.URL), nil)
	var backfillOnce sync.Once

	sess = session.New(session.Config{
		URL:      cfg.URL,
		Logger:   logger,
		Capture:  capture,
		OnUpdate: func(u pv.Update) { router.Route(u) },
		OnStateChange: func(_, newState session.State) {
			if newState == session.StateOpen {
				backfillOnce.Do(func() {
					go backfillPlots(widgets, histClient, logger)
				})
			}
		},
	}, reg)

	for _, w := range widgets {
		sess.Register(w.ID(), w.SubscribePVs())
	}

	if err := sess.Start(); err != nil {
		return err
	}
	defer sess.Close()

	if cfg.Watch {
		return watch(cfg, dash, widgets, sess)
	}
	return runInteractive(dash, widgets, sess)
}

// backfillPlots fetches history for every plot widget. A failed fetch
// leaves that plot with live points only.
func backfillPlots(widgets []widget.Widget, client *history.Client, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	for _, w := range widgets {
		p, ok := w.(*widget.Plot)
		if !ok {
			continue
		}
		pvName := p.PV()
		window := timeseries.DefaultWindow
		maxPoints := timeseries.DefaultMaxPoints

		points, err := client.Fetch(ctx, pvName, window, maxPoints)
		if err != nil {
			logger.Warn("history backfill failed", "pv", pvName, "error", err)
			continue
		}
		if !p.ApplyHistory(pvName, points) {
			logger.Debug("stale history discarded", "pv", pvName)
		}
	}
}

// watch renders the dashboard on a fixed interval until interrupted.
func watch(cfg config, dash Dashboard, widgets []widget.Widget, sess *session.Session) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		fmt.Printf("== %s [%s]\n", dash.Title, sess.State())
		for _, w := range widgets {
			fmt.Println("  " + w.Render())
		}
		fmt.Println()

		select {
		case <-sigCh:
			return nil
		case <-ticker.C:
		}
	}
}

// discoverServer browses mDNS and takes the first server found.
func discoverServer(logger *slog.Logger) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	browser := discovery.NewBrowser(discovery.BrowserConfig{})
	found, err := browser.Browse(ctx)
	if err != nil {
		return "", err
	}

	select {
	case svc, ok := <-found:
		if !ok || svc == nil {
			return "", fmt.Errorf("no %s server found", discovery.ServiceType)
		}
		logger.Info("discovered server", "instance", svc.Name, "url", svc.WSURL())
		return svc.WSURL(), nil
	case <-ctx.Done():
		return "", fmt.Errorf("no %s server found", discovery.ServiceType)
	}
}

// httpBase derives the history API base URL from the websocket URL.
func httpBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return wsURL
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	case "ws":
		u.Scheme = "http"
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
