package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/adinfit/glmaterial/material"
)

// Config controls the preview window. It can be loaded from a TOML or YAML
// file; command-line flags override whatever the file sets.
type Config struct {
	Materials []string `toml:"materials" yaml:"materials"`
	Shader    string   `toml:"shader" yaml:"shader"`

	// Compute names an optional compute shader dispatched over the mesh
	// vertices every frame before drawing.
	Compute  string   `toml:"compute" yaml:"compute"`
	Textures []string `toml:"textures" yaml:"textures"`

	// GLSLVersion replaces the detected vertex/pixel header, e.g. "330 core".
	GLSLVersion    string `toml:"glsl_version" yaml:"glsl_version"`
	DisableCompute bool   `toml:"disable_compute" yaml:"disable_compute"`
	Watch          bool   `toml:"watch" yaml:"watch"`

	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`

	Color       [4]float32 `toml:"color" yaml:"color"`
	PointScale  float32    `toml:"point_scale" yaml:"point_scale"`
	Light       [3]float32 `toml:"light" yaml:"light"`
	LightParams [2]float32 `toml:"light_params" yaml:"light_params"`
}

func DefaultConfig() Config {
	return Config{
		Width:       800,
		Height:      600,
		Color:       [4]float32{1, 1, 1, 1},
		PointScale:  1,
		Light:       [3]float32{10, 20, 10},
		LightParams: [2]float32{1, 0.1},
	}
}

// LoadConfig reads path into a copy of DefaultConfig. The format is picked
// from the file extension.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read config %q: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("unknown config format %q", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("unable to parse config %q: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (cfg *Config) Validate() error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	if len(cfg.Textures) > material.MaxSamplers {
		return fmt.Errorf("at most %d textures, got %d", material.MaxSamplers, len(cfg.Textures))
	}
	return nil
}

// Capabilities applies the config overrides on top of detected ones.
func (cfg *Config) Capabilities(detected material.Capabilities) material.Capabilities {
	caps := detected
	if cfg.GLSLVersion != "" {
		caps.Header = "#version " + cfg.GLSLVersion + "\n"
	}
	if cfg.DisableCompute {
		caps.Compute = false
	}
	return caps
}

// Frame returns the per-draw uniform values for the given transform.
func (cfg *Config) Frame(transform mgl32.Mat4, camera mgl32.Vec3) *material.Frame {
	return &material.Frame{
		Transform:  transform,
		Color:      mgl32.Vec4(cfg.Color),
		Camera:     camera,
		PointScale: cfg.PointScale,
		Lights: []material.Light{{
			Position: mgl32.Vec3(cfg.Light),
			Params:   mgl32.Vec2(cfg.LightParams),
		}},
	}
}
