package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/atomscene/internal/errs"
)

const (
	DefaultWidth       = 600
	DefaultHeight      = 600
	DefaultPreviewCols = 60
	DefaultPreviewRows = 20
	DefaultGlobalRC    = "~/.atomscenerc"
	DefaultLocalRC     = ".atomscenerc"
	EnvPrefix          = "ATOMSCENE_"
)

// Config holds viewer options that live outside saved state. Window
// geometry in particular is never written into a state blob.
type Config struct {
	DataDir   string `yaml:"data_dir" toml:"data_dir" env:"DATA_DIR"`
	Library   string `yaml:"library" toml:"library" env:"LIBRARY"`
	GlobalRC  string `yaml:"global_rc" toml:"global_rc" env:"GLOBAL_RC"`
	LocalRC   string `yaml:"local_rc" toml:"local_rc" env:"LOCAL_RC"`
	Width     int    `yaml:"width" toml:"width" env:"WIDTH"`
	Height    int    `yaml:"height" toml:"height" env:"HEIGHT"`
	Theme     string `yaml:"theme" toml:"theme" env:"THEME"`
	LogLevel  string `yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`
	FrameStep int    `yaml:"frame_step" toml:"frame_step" env:"FRAME_STEP"`
	Preview   struct {
		Cols int `yaml:"cols" toml:"cols" env:"COLS"`
		Rows int `yaml:"rows" toml:"rows" env:"ROWS"`
	} `yaml:"preview" toml:"preview" envPrefix:"PREVIEW_"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		DataDir:   "~/.atomscene",
		Library:   "~/.atomscene/states",
		GlobalRC:  DefaultGlobalRC,
		LocalRC:   DefaultLocalRC,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Theme:     "minimal",
		LogLevel:  "info",
		FrameStep: 1,
	}
	cfg.Preview.Cols = DefaultPreviewCols
	cfg.Preview.Rows = DefaultPreviewRows
	return cfg
}

// Load reads path over the defaults, as TOML when it ends in .toml and as
// YAML otherwise.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO("read", path, err)
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errs.IO("parse", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return errs.IO("write", path, os.WriteFile(path, data, 0644))
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// ApplyEnv overrides fields from ATOMSCENE_* variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the fields the viewer cannot start without.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errs.Invalid("window geometry must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.FrameStep < 1 {
		return errs.Invalid("frame step must be at least 1, got %d", c.FrameStep)
	}
	if c.Preview.Cols < 1 || c.Preview.Rows < 1 {
		return errs.Invalid("preview size must be positive")
	}
	return nil
}

// LibraryPath returns Library with ~ expanded.
func (c *Config) LibraryPath() (string, error) {
	return homedir.Expand(c.Library)
}

// ResourceFiles returns the startup scripts that exist, user-global first
// and then the one in dir. A file is listed once even if both names
// resolve to it.
func (c *Config) ResourceFiles(dir string) ([]string, error) {
	global, err := homedir.Expand(c.GlobalRC)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", c.GlobalRC, err)
	}
	candidates := []string{global}
	if c.LocalRC != "" {
		candidates = append(candidates, filepath.Join(dir, c.LocalRC))
	}

	var out []string
	seen := make(map[string]bool)
	for _, p := range candidates {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		if st, err := os.Stat(abs); err != nil || st.IsDir() {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out, nil
}

// ParseGeometry parses "WxH".
func ParseGeometry(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errs.Invalid("geometry %q is not WxH", s)
	}
	w, err1 := strconv.Atoi(ws)
	h, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, errs.Invalid("geometry %q is not WxH", s)
	}
	return w, h, nil
}
