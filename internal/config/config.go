package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CaptureConfig controls the frame source and scan loop
type CaptureConfig struct {
	Display         int           `mapstructure:"display"`
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	Grayscale       bool          `mapstructure:"grayscale"`
	ContrastStretch bool          `mapstructure:"contrast_stretch"`
}

// DetectionConfig selects and parameterizes the text-detection backend
type DetectionConfig struct {
	// Backend is "vision" (remote vision model) or "tesseract" (on-device OCR)
	Backend  string        `mapstructure:"backend"`
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Language string        `mapstructure:"language"`
}

// PlannerConfig points at the visualization-planning collaborator
type PlannerConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RenderConfig points at the 3D rendering collaborator. The endpoint is
// user-editable at runtime and may legitimately be empty; a 3D visualize
// attempt with an empty endpoint is reported, never silently skipped.
type RenderConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CanvasConfig sizes the 2D animation surface
type CanvasConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
	FPS    int `mapstructure:"fps"`
}

// ArchiveConfig enables optional blob archival of frozen capture frames
type ArchiveConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	Container        string `mapstructure:"container"`
}

type Config struct {
	Host             string          `mapstructure:"host"`
	Port             string          `mapstructure:"port"`
	RequestTimeout   time.Duration   `mapstructure:"request_timeout"`
	EventLogCapacity int             `mapstructure:"event_log_capacity"`
	Capture          CaptureConfig   `mapstructure:"capture"`
	Detection        DetectionConfig `mapstructure:"detection"`
	Planner          PlannerConfig   `mapstructure:"planner"`
	Render           RenderConfig    `mapstructure:"render"`
	Canvas           CanvasConfig    `mapstructure:"canvas"`
	Archive          ArchiveConfig   `mapstructure:"archive"`
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

// Load reads config.yaml from the working directory, overridden by
// WHICHISVIZ_* environment variables. A missing config file is fine; the
// defaults describe a working local setup.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("whichisviz")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "8080")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("event_log_capacity", 500)

	v.SetDefault("capture.display", 0)
	v.SetDefault("capture.scan_interval", "2s")
	v.SetDefault("capture.grayscale", false)
	v.SetDefault("capture.contrast_stretch", false)

	v.SetDefault("detection.backend", "tesseract")
	v.SetDefault("detection.timeout", "20s")
	v.SetDefault("detection.language", "eng")
	v.SetDefault("detection.model", "gemini-2.0-flash")

	v.SetDefault("planner.timeout", "30s")

	v.SetDefault("render.timeout", "60s")

	v.SetDefault("canvas.width", 640)
	v.SetDefault("canvas.height", 480)
	v.SetDefault("canvas.fps", 30)
}

// Validate rejects configurations the pipeline cannot run with. The render
// endpoint is deliberately not required here.
func (c *Config) Validate() error {
	if _, err := net.LookupPort("tcp", strings.TrimSpace(c.Port)); err != nil {
		return fmt.Errorf("invalid port: %q", c.Port)
	}
	if c.Capture.ScanInterval <= 0 {
		return fmt.Errorf("capture.scan_interval must be > 0 (got %s)", c.Capture.ScanInterval)
	}
	switch c.Detection.Backend {
	case "tesseract":
	case "vision":
		if c.Detection.Endpoint == "" {
			return fmt.Errorf("detection.endpoint is required for the vision backend")
		}
	default:
		return fmt.Errorf("unknown detection.backend %q (want \"tesseract\" or \"vision\")", c.Detection.Backend)
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas dimensions must be > 0 (got %dx%d)", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.FPS <= 0 || c.Canvas.FPS > 240 {
		return fmt.Errorf("canvas.fps must be in (0, 240] (got %d)", c.Canvas.FPS)
	}
	if c.Detection.Timeout <= 0 || c.Planner.Timeout <= 0 || c.Render.Timeout <= 0 {
		return fmt.Errorf("collaborator timeouts must be > 0")
	}
	return nil
}
