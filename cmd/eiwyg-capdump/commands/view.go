// Package commands implements the eiwyg-capdump CLI commands.
package commands

import (
	"fmt"
	"io"

	"github.com/deanSLAC/eiwyg/pkg/caplog"
)

// ViewOptions specifies filtering criteria for the view command.
// Flag values are parsed strings; empty fields match everything.
type ViewOptions struct {
	ConnID    string
	Layer     string
	Direction string
}

// RunView prints each matching event in human-readable form.
func RunView(path string, opts ViewOptions, w io.Writer) error {
	filter := caplog.Filter{ConnectionID: opts.ConnID}

	if opts.Layer != "" {
		l, err := parseLayer(opts.Layer)
		if err != nil {
			return err
		}
		filter.Layer = &l
	}

	if opts.Direction != "" {
		d, err := parseDirection(opts.Direction)
		if err != nil {
			return err
		}
		filter.Direction = &d
	}

	reader, err := caplog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event caplog.Event) {
	// Header line: timestamp [conn:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenConnID(event.ConnectionID)

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = "Frame"
	case event.Message != nil:
		typeLabel = event.Message.Type
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n",
		ts, connID, event.Direction.String(), event.Layer.String(), typeLabel)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *caplog.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", frame.Data)
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatMessageDetails(w io.Writer, msg *caplog.MessageEvent) {
	if msg.PV != "" {
		fmt.Fprintf(w, "  PV: %s\n", msg.PV)
	}
	if msg.PVCount > 0 {
		fmt.Fprintf(w, "  PVs: %d\n", msg.PVCount)
	}
	if msg.Severity != 0 {
		fmt.Fprintf(w, "  Severity: %d\n", msg.Severity)
	}
}

func formatStateChangeDetails(w io.Writer, sc *caplog.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  Transition: %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  State: %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, e *caplog.ErrorEvent) {
	fmt.Fprintf(w, "  Error: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

func parseLayer(s string) (caplog.Layer, error) {
	switch s {
	case "transport":
		return caplog.LayerTransport, nil
	case "wire":
		return caplog.LayerWire, nil
	case "session":
		return caplog.LayerSession, nil
	default:
		return 0, fmt.Errorf("unknown layer: %s (supported: transport, wire, session)", s)
	}
}

func parseDirection(s string) (caplog.Direction, error) {
	switch s {
	case "in":
		return caplog.DirectionIn, nil
	case "out":
		return caplog.DirectionOut, nil
	default:
		return 0, fmt.Errorf("unknown direction: %s (supported: in, out)", s)
	}
}
