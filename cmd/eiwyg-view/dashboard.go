package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/deanSLAC/eiwyg/pkg/widget"
)

// Dashboard is a named collection of widget definitions, loaded from a
// JSON layout file.
type Dashboard struct {
	Title   string              `json:"title"`
	Widgets []widget.Definition `json:"widgets"`
}

// LoadDashboard reads a dashboard layout from a JSON file.
func LoadDashboard(path string) (Dashboard, error) {
	var d Dashboard
	data, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("failed to read dashboard: %w", err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("failed to parse dashboard: %w", err)
	}
	if len(d.Widgets) == 0 {
		return d, fmt.Errorf("dashboard %q has no widgets", path)
	}
	return d, nil
}

func intp(v int) *int         { return &v }
func floatp(v float64) *float64 { return &v }

// DefaultDashboard covers the server's built-in simulated beamline.
func DefaultDashboard() Dashboard {
	return Dashboard{
		Title: "Simulated Beamline",
		Widgets: []widget.Definition{
			{ID: "temp1", Type: widget.KindReadout, PV: "SIM:TEMP:1",
				Config: widget.Config{Label: "Temp 1", Units: "C", Precision: intp(2)}},
			{ID: "pressure1", Type: widget.KindReadout, PV: "SIM:PRESSURE:1",
				Config: widget.Config{Label: "Pressure 1", Units: "Torr"}},
			{ID: "intensity", Type: widget.KindGauge, PV: "SIM:BEAM:INTENSITY",
				Config: widget.Config{Label: "Beam", MinValue: floatp(0), MaxValue: floatp(1e7)}},
			{ID: "shutter", Type: widget.KindLED, PV: "SIM:SHUTTER:STATUS",
				Config: widget.Config{Label: "Shutter"}},
			{ID: "flow", Type: widget.KindNumericInput, PV: "SIM:FLOW:1",
				Config: widget.Config{Label: "Flow", Min: floatp(0), Max: floatp(20), Step: floatp(0.5)}},
			{ID: "valve", Type: widget.KindEnumSelector, PV: "SIM:VALVE:1",
				Config: widget.Config{Label: "Valve", EnumLabels: []string{"Closed", "Open", "Fault"}}},
			{ID: "mtr1", Type: widget.KindMotor, PV: "SIM:MTR:1",
				Config: widget.Config{Label: "Motor 1", Precision: intp(3)}},
			{ID: "tempplot", Type: widget.KindPlot, PV: "SIM:TEMP:1",
				Config: widget.Config{Label: "Temp 1 trend", MaxPoints: 500, TimeWindow: 3600}},
		},
	}
}
