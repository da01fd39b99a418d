package container

import (
	"fmt"
	"net/http"

	"github.com/Shocam7/WhichisViz/internal/capture"
	"github.com/Shocam7/WhichisViz/internal/config"
	"github.com/Shocam7/WhichisViz/internal/detect"
	"github.com/Shocam7/WhichisViz/internal/eventlog"
	"github.com/Shocam7/WhichisViz/internal/factory"
	"github.com/Shocam7/WhichisViz/internal/logger"
	"github.com/Shocam7/WhichisViz/internal/selection"
	"github.com/Shocam7/WhichisViz/internal/session"
	"github.com/Shocam7/WhichisViz/internal/transport"
	"github.com/Shocam7/WhichisViz/internal/visualize"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	events   *eventlog.Log
	source   capture.FrameSource
	detector detect.Detector
	loop     *capture.Loop
	surface  *visualize.Surface
	machine  *session.Machine
	handler  http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	events := eventlog.New(cfg.EventLogCapacity)

	source, err := capture.NewScreenSource(cfg.Capture.Display)
	if err != nil {
		return nil, err
	}

	detector, err := factory.NewDetector(cfg.Detection)
	if err != nil {
		source.Close()
		return nil, err
	}
	logger.WithField("backend", detector.Name()).Info("Text detection backend ready")

	pre := capture.Preprocessor{
		Grayscale:       cfg.Capture.Grayscale,
		ContrastStretch: cfg.Capture.ContrastStretch,
	}
	loop := capture.NewLoop(source, detector, pre, events, cfg.Capture.ScanInterval)

	surface := visualize.NewSurface(cfg.Canvas.Width, cfg.Canvas.Height)
	planner := visualize.NewHTTPPlanner(cfg.Planner.Endpoint, cfg.Planner.APIKey, cfg.Planner.Timeout)
	renderer := visualize.NewRendererClient(cfg.Render.Endpoint, cfg.Render.Timeout)
	assets := visualize.NewAssetStore()
	dispatcher := visualize.NewDispatcher(planner, renderer, assets, surface, cfg.Canvas.FPS, events)

	archiver, err := factory.NewArchiver(cfg.Archive)
	if err != nil {
		source.Close()
		detector.Close()
		return nil, err
	}
	if cfg.Archive.ConnectionString != "" {
		logger.WithField("container", cfg.Archive.Container).Info("Frame archival enabled")
	}

	machine := session.NewMachine(loop, selection.NewEngine(), dispatcher, archiver, events)
	handler := transport.NewHandler(machine, renderer, assets, surface, events, cfg)

	return &Container{
		config:   cfg,
		events:   events,
		source:   source,
		detector: detector,
		loop:     loop,
		surface:  surface,
		machine:  machine,
		handler:  handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Loop returns the capture loop so main can run it.
func (c *Container) Loop() *capture.Loop {
	return c.loop
}

// Machine returns the session state machine.
func (c *Container) Machine() *session.Machine {
	return c.machine
}

// Close releases the frame source and the detection backend.
func (c *Container) Close() error {
	c.machine.Reset()
	err := c.loop.Close()
	if derr := c.detector.Close(); err == nil {
		err = derr
	}
	return err
}
