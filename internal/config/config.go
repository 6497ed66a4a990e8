// Package config implements the engine's run configuration: a linked
// property bag generalized from dieselvk's Usage type (originally a
// Vulkan-instance-scoped settings struct) into the top-level knobs that
// configure window size, validation, asset roots, and the GPU resource
// database's per-allocator sizes.
//
// The linked-bag shape mirrors dieselvk.Usage: a named set of typed
// property maps plus an optional parent to fall through to when a key is
// absent, distinguishing "engine defaults" from "per-instance overrides"
// without a separate merge step.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Bag is a named set of typed properties with an optional linked parent,
// generalized from dieselvk.Usage's String_props/Int_props/Bool_props/
// Float_props/Linked_usage quartet.
type Bag struct {
	Name    string             `yaml:"name"`
	Strings map[string]string  `yaml:"strings,omitempty"`
	Ints    map[string]int     `yaml:"ints,omitempty"`
	Bools   map[string]bool    `yaml:"bools,omitempty"`
	Floats  map[string]float32 `yaml:"floats,omitempty"`
	Linked  *Bag               `yaml:"linked,omitempty"`
}

// NewBag builds an empty, named property bag.
func NewBag(name string) *Bag {
	return &Bag{
		Name:    name,
		Strings: make(map[string]string),
		Ints:    make(map[string]int),
		Bools:   make(map[string]bool),
		Floats:  make(map[string]float32),
	}
}

// HasLinked reports whether this bag chains to a parent.
func (b *Bag) HasLinked() bool { return b.Linked != nil }

// LinkedBag returns the parent bag, or an error if there is none.
func (b *Bag) LinkedBag() (*Bag, error) {
	if b.Linked == nil {
		return nil, fmt.Errorf("config: bag %q has no linked bag", b.Name)
	}
	return b.Linked, nil
}

// String looks key up in this bag, falling through the Linked chain.
func (b *Bag) String(key, fallback string) string {
	for cur := b; cur != nil; cur = cur.Linked {
		if v, ok := cur.Strings[key]; ok {
			return v
		}
	}
	return fallback
}

// Int looks key up in this bag, falling through the Linked chain.
func (b *Bag) Int(key string, fallback int) int {
	for cur := b; cur != nil; cur = cur.Linked {
		if v, ok := cur.Ints[key]; ok {
			return v
		}
	}
	return fallback
}

// Bool looks key up in this bag, falling through the Linked chain.
func (b *Bag) Bool(key string, fallback bool) bool {
	for cur := b; cur != nil; cur = cur.Linked {
		if v, ok := cur.Bools[key]; ok {
			return v
		}
	}
	return fallback
}

// Float looks key up in this bag, falling through the Linked chain.
func (b *Bag) Float(key string, fallback float32) float32 {
	for cur := b; cur != nil; cur = cur.Linked {
		if v, ok := cur.Floats[key]; ok {
			return v
		}
	}
	return fallback
}

// Print writes the bag tree to stdout, following Usage.Print's recursive
// walk down the Linked chain.
func (b *Bag) Print() {
	fmt.Println(b.Name, b.Strings, b.Ints, b.Bools, b.Floats)
	if b.HasLinked() {
		b.Linked.Print()
	}
}

// ResourceDatabaseSizes carries the four sub-allocator byte budgets plus
// the descriptor pool size, recovered from the original source's
// vulkan_ecs/public/vulkan_memory.hpp initialization_info (see SPEC_FULL.md).
type ResourceDatabaseSizes struct {
	VertexBufferSpace  uint64 `yaml:"vertex_buffer_space"`
	IndexBufferSpace   uint64 `yaml:"index_buffer_space"`
	StagingBufferSpace uint64 `yaml:"staging_buffer_space"`
	UniformBufferSpace uint64 `yaml:"uniform_buffer_space"`
	MaxDescriptorSets  uint32 `yaml:"max_descriptor_sets"`
}

// defaultResourceDatabaseSizes gives each sub-allocator a budget sized for
// a handful of live meshes/materials.
func defaultResourceDatabaseSizes() ResourceDatabaseSizes {
	return ResourceDatabaseSizes{
		VertexBufferSpace:  16 << 20,
		IndexBufferSpace:   8 << 20,
		StagingBufferSpace: 16 << 20,
		UniformBufferSpace: 4 << 20,
		MaxDescriptorSets:  256,
	}
}

// Config is the engine's top-level run configuration, populated from a
// YAML file (the --config|-c flag) over Default(). No CLI flag overrides
// its fields.
type Config struct {
	WindowWidth      int                   `yaml:"window_width"`
	WindowHeight     int                   `yaml:"window_height"`
	ValidationLayers bool                  `yaml:"validation_layers"`
	AssetRoot        string                `yaml:"asset_root"`
	LogDir           string                `yaml:"log_dir"`
	ResourceDatabase ResourceDatabaseSizes `yaml:"resource_database"`
}

// Default returns the configuration used when no --config file is given.
func Default() Config {
	return Config{
		WindowWidth:      1280,
		WindowHeight:     720,
		ValidationLayers: true,
		AssetRoot:        ".",
		LogDir:           "logs",
		ResourceDatabase: defaultResourceDatabaseSizes(),
	}
}

// Bag flattens the configuration into a named property bag linked over the
// built-in defaults, the form consumers of loose keyed properties (instance
// naming, window sizing) take. A lookup that misses the loaded
// configuration falls through to the defaults bag.
func (c Config) Bag() *Bag {
	defaults := bagOf("defaults", Default())
	b := bagOf("engine", c)
	b.Linked = defaults
	return b
}

func bagOf(name string, c Config) *Bag {
	b := NewBag(name)
	b.Strings["app_name"] = "dieselvk"
	b.Strings["asset_root"] = c.AssetRoot
	b.Strings["log_dir"] = c.LogDir
	b.Ints["window_width"] = c.WindowWidth
	b.Ints["window_height"] = c.WindowHeight
	b.Bools["validation_layers"] = c.ValidationLayers
	return b
}

// Load reads and unmarshals a YAML configuration file, starting from
// Default() so a partial file only overrides the fields it sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}
