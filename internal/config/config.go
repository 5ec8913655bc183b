package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths. Relative paths in a config file are taken relative to the
	// file's directory.
	ModelDir  string `json:"model_dir"`
	OutputDir string `json:"output_dir"`

	// Render settings
	RenderSize  int     `json:"render_size"`
	Supersample int     `json:"supersample"`
	Workers     int     `json:"workers"`
	Yaw         float64 `json:"yaw"`
	Pitch       float64 `json:"pitch"`
	FOV         float64 `json:"fov"`
	Background  bool    `json:"background"`
}

// Default returns the settings used when neither a config file nor a flag
// sets a field. Paths stay empty.
func Default() Config {
	return Config{
		RenderSize:  512,
		Supersample: 2,
		Workers:     runtime.NumCPU(),
		Pitch:       -5,
	}
}

// Load reads a JSON config file. Fields not set in the file keep their
// Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.ModelDir = relativeTo(dir, cfg.ModelDir)
	cfg.OutputDir = relativeTo(dir, cfg.OutputDir)
	return cfg, nil
}

func relativeTo(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Flags holds CLI flag values that override config file settings. Nil
// pointers and zero values mean "not given".
type Flags struct {
	ModelDir    string
	OutputDir   string
	RenderSize  int
	Supersample int
	Workers     int
	Yaw         *float64
	Pitch       *float64
	FOV         *float64
	Background  *bool
}

// Resolve applies flag overrides, then fills in anything still unset.
// An empty OutputDir defaults to "previews" inside ModelDir.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.ModelDir != "" {
		c.ModelDir = flags.ModelDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.RenderSize > 0 {
		c.RenderSize = flags.RenderSize
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Yaw != nil {
		c.Yaw = *flags.Yaw
	}
	if flags.Pitch != nil {
		c.Pitch = *flags.Pitch
	}
	if flags.FOV != nil {
		c.FOV = *flags.FOV
	}
	if flags.Background != nil {
		c.Background = *flags.Background
	}

	if c.OutputDir == "" && c.ModelDir != "" {
		c.OutputDir = filepath.Join(c.ModelDir, "previews")
	}

	def := Default()
	if c.RenderSize <= 0 {
		c.RenderSize = def.RenderSize
	}
	if c.Supersample <= 0 {
		c.Supersample = def.Supersample
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.FOV < 0 || c.FOV >= 180 {
		c.FOV = 0
	}
}

// Validate reports settings that would make a run meaningless.
func (c *Config) Validate() error {
	if c.ModelDir == "" {
		return fmt.Errorf("config: model_dir is not set")
	}
	info, err := os.Stat(c.ModelDir)
	if err != nil {
		return fmt.Errorf("config: model_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("config: model_dir %s is not a directory", c.ModelDir)
	}
	return nil
}
