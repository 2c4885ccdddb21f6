package config

import "sort"

// Presets are named starting points for the viewer configuration.
var Presets = map[string]func() *Config{
	"terminal": func() *Config {
		cfg := DefaultConfig()
		cfg.Preview.Cols, cfg.Preview.Rows = 80, 30
		return cfg
	},
	"compact": func() *Config {
		cfg := DefaultConfig()
		cfg.Width, cfg.Height = 400, 400
		cfg.Preview.Cols, cfg.Preview.Rows = 40, 12
		return cfg
	},
	"publication": func() *Config {
		cfg := DefaultConfig()
		cfg.Width, cfg.Height = 1600, 1200
		cfg.Theme = "minimal"
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	mk, ok := Presets[name]
	if !ok {
		return nil
	}
	return mk()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
