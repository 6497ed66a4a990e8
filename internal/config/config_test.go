package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBagFallsThroughLinkedChain(t *testing.T) {
	parent := NewBag("parent")
	parent.Ints["window_width"] = 640
	parent.Strings["asset_root"] = "/assets"

	child := NewBag("child")
	child.Ints["window_width"] = 1920
	child.Linked = parent

	assert.Equal(t, 1920, child.Int("window_width", 0), "child value wins")
	assert.Equal(t, "/assets", child.String("asset_root", ""), "missing key falls through to parent")
	assert.Equal(t, 42, child.Int("no_such_key", 42), "fallback when the whole chain misses")
}

func TestConfigBagCarriesLoadedValuesOverDefaults(t *testing.T) {
	cfg := Default()
	cfg.WindowWidth = 800

	b := cfg.Bag()
	assert.Equal(t, 800, b.Int("window_width", 0))
	assert.True(t, b.HasLinked(), "engine bag links to defaults")
	assert.Equal(t, Default().LogDir, b.String("log_dir", ""))
}

func TestLoadLayersPartialFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_width: 640\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.WindowWidth, "file value overrides")
	assert.Equal(t, Default().WindowHeight, cfg.WindowHeight, "unset fields keep defaults")
	assert.Equal(t, Default().ResourceDatabase, cfg.ResourceDatabase)
}

func TestLoadMissingFileReturnsDefaultsAndError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}
