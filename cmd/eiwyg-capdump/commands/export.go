package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/deanSLAC/eiwyg/pkg/caplog"
)

// RunExport writes the capture file as JSON lines, one event per line.
func RunExport(path, output string) error {
	reader, err := caplog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return exportJSONL(reader, w)
}

func exportJSONL(reader *caplog.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(exportEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

// exportedEvent is the JSONL representation of a capture event. Frame
// payloads are JSON text on the wire, so they export as strings rather
// than base64 bytes.
type exportedEvent struct {
	Timestamp    string                   `json:"timestamp"`
	ConnectionID string                   `json:"connection_id"`
	Direction    string                   `json:"direction"`
	Layer        string                   `json:"layer"`
	RemoteAddr   string                   `json:"remote_addr,omitempty"`
	Frame        *exportedFrame           `json:"frame,omitempty"`
	Message      *caplog.MessageEvent     `json:"message,omitempty"`
	StateChange  *caplog.StateChangeEvent `json:"state_change,omitempty"`
	Error        *caplog.ErrorEvent       `json:"error,omitempty"`
}

type exportedFrame struct {
	Size      int    `json:"size"`
	Data      string `json:"data,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

func exportEvent(event caplog.Event) exportedEvent {
	out := exportedEvent{
		Timestamp:    event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		ConnectionID: event.ConnectionID,
		Direction:    event.Direction.String(),
		Layer:        event.Layer.String(),
		RemoteAddr:   event.RemoteAddr,
		Message:      event.Message,
		StateChange:  event.StateChange,
		Error:        event.Error,
	}
	if event.Frame != nil {
		out.Frame = &exportedFrame{
			Size:      event.Frame.Size,
			Data:      string(event.Frame.Data),
			Truncated: event.Frame.Truncated,
		}
	}
	return out
}
