package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deanSLAC/eiwyg/pkg/widget"
)

func TestDefaultDashboardBuilds(t *testing.T) {
	kinds := widget.DefaultRegistry()
	dash := DefaultDashboard()
	require.NotEmpty(t, dash.Widgets)

	for _, def := range dash.Widgets {
		w, err := kinds.New(def, nil)
		require.NoError(t, err, def.ID)
		assert.NotEmpty(t, w.SubscribePVs(), def.ID)
	}
}

func TestLoadDashboard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.json")
	doc := `{
  "title": "Test",
  "widgets": [
    {"id": "r1", "type": "readout", "pv": "BPM:X",
     "config": {"label": "X", "precision": 2}}
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	dash, err := LoadDashboard(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", dash.Title)
	require.Len(t, dash.Widgets, 1)
	assert.Equal(t, widget.KindReadout, dash.Widgets[0].Type)
	require.NotNil(t, dash.Widgets[0].Config.Precision)
	assert.Equal(t, 2, *dash.Widgets[0].Config.Precision)
}

func TestLoadDashboardErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadDashboard("/does/not/exist.json")
		assert.Error(t, err)
	})

	t.Run("NoWidgets", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"title":"x","widgets":[]}`), 0o644))
		_, err := LoadDashboard(path)
		assert.Error(t, err)
	})
}

func TestHTTPBase(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", httpBase("ws://localhost:8080/ws"))
	assert.Equal(t, "https://host:9443", httpBase("wss://host:9443/ws"))
}
