package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Host:           "127.0.0.1",
		Port:           "8080",
		RequestTimeout: 30 * time.Second,
		Capture:        CaptureConfig{ScanInterval: 2 * time.Second},
		Detection:      DetectionConfig{Backend: "tesseract", Timeout: 20 * time.Second},
		Planner:        PlannerConfig{Timeout: 30 * time.Second},
		Render:         RenderConfig{Timeout: 60 * time.Second},
		Canvas:         CanvasConfig{Width: 640, Height: 480, FPS: 30},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default is valid", func(c *Config) {}, ""},
		{"empty render endpoint is valid", func(c *Config) { c.Render.Endpoint = "" }, ""},
		{"bad port", func(c *Config) { c.Port = "not-a-port" }, "invalid port"},
		{"zero scan interval", func(c *Config) { c.Capture.ScanInterval = 0 }, "scan_interval"},
		{"unknown backend", func(c *Config) { c.Detection.Backend = "magic" }, "unknown detection.backend"},
		{
			"vision backend requires endpoint",
			func(c *Config) { c.Detection.Backend = "vision"; c.Detection.Endpoint = "" },
			"detection.endpoint is required",
		},
		{
			"vision backend with endpoint is valid",
			func(c *Config) { c.Detection.Backend = "vision"; c.Detection.Endpoint = "https://example.com/detect" },
			"",
		},
		{"zero canvas width", func(c *Config) { c.Canvas.Width = 0 }, "canvas dimensions"},
		{"absurd fps", func(c *Config) { c.Canvas.FPS = 1000 }, "canvas.fps"},
		{"zero planner timeout", func(c *Config) { c.Planner.Timeout = 0 }, "timeouts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestServerAddress(t *testing.T) {
	cfg := &Config{Host: " 0.0.0.0 ", Port: " 9090 "}
	if got := cfg.ServerAddress(); got != "0.0.0.0:9090" {
		t.Errorf("ServerAddress() = %q, want %q", got, "0.0.0.0:9090")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file failed: %v", err)
	}
	if cfg.Detection.Backend != "tesseract" {
		t.Errorf("default detection backend = %q, want tesseract", cfg.Detection.Backend)
	}
	if cfg.Capture.ScanInterval != 2*time.Second {
		t.Errorf("default scan interval = %s, want 2s", cfg.Capture.ScanInterval)
	}
	if cfg.Render.Endpoint != "" {
		t.Errorf("render endpoint should default to empty, got %q", cfg.Render.Endpoint)
	}
}
