// Package config loads the YAML configuration that controls chart
// appearance, the default view mode and the project store.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"gantt2svg/pkg/timeline"
)

// FontConfig sets the font used for every text element.
type FontConfig struct {
	Family string `yaml:"family"` // e.g. "Arial, sans-serif"
	Size   int    `yaml:"size"`   // base size in pixels
}

// ColorConfig holds hex colours for the chart.
type ColorConfig struct {
	Background     string `yaml:"background"`
	Text           string `yaml:"text"`
	Grid           string `yaml:"grid"`
	HeaderFill     string `yaml:"header_fill"`
	Project        string `yaml:"project"`
	Stage          string `yaml:"stage"`
	TaskPending    string `yaml:"task_pending"`
	TaskInProgress string `yaml:"task_in_progress"`
	TaskCompleted  string `yaml:"task_completed"`
	Progress       string `yaml:"progress"` // overlay drawn over the completed share of a bar
}

// LayoutConfig sets the fixed vertical geometry and the label column.
type LayoutConfig struct {
	MarginTop    int `yaml:"margin_top"`
	MarginBottom int `yaml:"margin_bottom"`
	MarginLeft   int `yaml:"margin_left"`
	MarginRight  int `yaml:"margin_right"`
	LabelWidth   int `yaml:"label_width"`   // width of the row label column
	HeaderHeight int `yaml:"header_height"` // height of the header band
	RowHeight    int `yaml:"row_height"`    // vertical slot per row
	BarHeight    int `yaml:"bar_height"`    // bar height inside its slot
	BarRadius    int `yaml:"bar_radius"`    // bar corner radius
}

// ChartConfig holds defaults for the timeline itself.
type ChartConfig struct {
	ViewMode timeline.ViewMode `yaml:"view_mode"`
	Locale   string            `yaml:"locale"` // "en" or "es"
	Title    string            `yaml:"title"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects where projects live between runs.
type StoreConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite or yaml
	Path   string `yaml:"path"`
}

// Config is the complete configuration.
type Config struct {
	Font   FontConfig   `yaml:"font"`
	Colors ColorConfig  `yaml:"colors"`
	Layout LayoutConfig `yaml:"layout"`
	Chart  ChartConfig  `yaml:"chart"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Font: FontConfig{
			Family: "Arial, sans-serif",
			Size:   12,
		},
		Colors: ColorConfig{
			Background:     "#ffffff",
			Text:           "#333333",
			Grid:           "#e0e0e0",
			HeaderFill:     "#f5f5f5",
			Project:        "#5c6bc0",
			Stage:          "#26a69a",
			TaskPending:    "#bdbdbd",
			TaskInProgress: "#ffa726",
			TaskCompleted:  "#66bb6a",
			Progress:       "#000000",
		},
		Layout: LayoutConfig{
			MarginTop:    20,
			MarginBottom: 20,
			MarginLeft:   20,
			MarginRight:  20,
			LabelWidth:   260,
			HeaderHeight: 40,
			RowHeight:    48, // bar height 30 plus 18 padding
			BarHeight:    30,
			BarRadius:    3,
		},
		Chart: ChartConfig{
			ViewMode: timeline.Week,
			Locale:   "en",
			Title:    "Projects",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Store: StoreConfig{
			Driver: "memory",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path yields the defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := overrideFromEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overrideFromEnv(cfg *Config) error {
	if v := os.Getenv("GANTT_VIEW"); v != "" {
		mode, err := timeline.ParseViewMode(v)
		if err != nil {
			return fmt.Errorf("GANTT_VIEW: %w", err)
		}
		cfg.Chart.ViewMode = mode
	}
	if v := os.Getenv("GANTT_LOCALE"); v != "" {
		cfg.Chart.Locale = v
	}
	if v := os.Getenv("GANTT_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GANTT_STORE"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("GANTT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("GANTT_ROW_HEIGHT"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GANTT_ROW_HEIGHT: %w", err)
		}
		cfg.Layout.RowHeight = h
	}
	return nil
}

// Validate rejects settings the renderer or store cannot work with.
func (c Config) Validate() error {
	if !c.Chart.ViewMode.Valid() {
		return fmt.Errorf("chart.view_mode: %w: %q", timeline.ErrUnknownViewMode, c.Chart.ViewMode)
	}
	if c.Layout.RowHeight <= 0 || c.Layout.BarHeight <= 0 || c.Layout.BarHeight > c.Layout.RowHeight {
		return fmt.Errorf("layout: bar_height must be positive and fit in row_height")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "yaml":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
