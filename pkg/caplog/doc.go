// Package caplog provides structured protocol capture for the live data
// pipeline.
//
// It is separate from operational logging (slog): capture produces a
// complete machine-readable trace of what moved over a session - frames,
// decoded messages, state transitions and errors - for offline debugging
// of subscription and reconnect behavior.
//
// Applications configure capture by providing a Logger implementation:
//
//	// Development: events on the console via slog
//	cfg.Capture = caplog.NewSlogAdapter(slog.Default())
//
//	// Production: CBOR event file
//	cfg.Capture, _ = caplog.NewFileLogger("/var/log/eiwyg/session.clog")
//
//	// Both
//	cfg.Capture = caplog.NewMultiLogger(
//	    caplog.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// Capture files are CBOR streams readable with Reader.
package caplog
