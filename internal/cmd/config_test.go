package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

func TestConfigInitYAML(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "helmsman.yaml")
	c := ConfigInit{Format: "yaml", Output: dest}
	require.NoError(t, c.Run())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)

	var root map[string]any
	require.NoError(t, yaml.Unmarshal(data, &root))
	assert.Equal(t, 60, root["tick-rate"])
	assert.Equal(t, "200ms", root["hold-window"])
	assert.Equal(t, true, root["touch-feed"])

	touch, ok := root["touch"].(map[string]any)
	require.True(t, ok, "embedded touch config becomes a section")
	assert.Equal(t, ":8632", touch["addr"])
}

func TestConfigInitJSON(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "helmsman.json")
	c := ConfigInit{Format: "json", Output: dest}
	require.NoError(t, c.Run())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)

	var root map[string]any
	require.NoError(t, json.Unmarshal(data, &root))
	assert.Equal(t, float64(60), root["tick-rate"])
	assert.Equal(t, "arrows", root["bindings"])
}

func TestConfigInitTOML(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "helmsman.toml")
	c := ConfigInit{Format: "toml", Output: dest}
	require.NoError(t, c.Run())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)

	tree, err := toml.LoadBytes(data)
	require.NoError(t, err)
	assert.Equal(t, int64(60), tree.Get("tick-rate"))
	assert.Equal(t, ":8632", tree.Get("touch.addr"))
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "helmsman.yaml")
	require.NoError(t, os.WriteFile(dest, []byte("existing"), 0o644))

	c := ConfigInit{Format: "yaml", Output: dest}
	assert.Error(t, c.Run())

	c.Force = true
	assert.NoError(t, c.Run())
}
