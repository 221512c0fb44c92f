package commands

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestExportJSONL(t *testing.T) {
	path := writeTestCapture(t)
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, out); err != nil {
		t.Fatalf("RunExport: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var obj map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &obj); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", len(lines)+1, err)
		}
		lines = append(lines, obj)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(lines) != 5 {
		t.Fatalf("exported %d lines, want 5", len(lines))
	}

	first := lines[0]
	if first["connection_id"] != "conn-aaaaaaaa" {
		t.Errorf("connection_id = %v", first["connection_id"])
	}
	if first["layer"] != "SESSION" {
		t.Errorf("layer = %v", first["layer"])
	}

	// Frame payloads export as readable text, not base64.
	frame, ok := lines[1]["frame"].(map[string]any)
	if !ok {
		t.Fatalf("second line has no frame object: %v", lines[1])
	}
	if data, _ := frame["data"].(string); data != `{"type":"subscribe","pvs":["BPM:X"]}` {
		t.Errorf("frame data = %q", data)
	}
}

func TestExportMissingFile(t *testing.T) {
	if err := RunExport(filepath.Join(t.TempDir(), "nope.eclog"), ""); err == nil {
		t.Error("expected error for missing file")
	}
}
