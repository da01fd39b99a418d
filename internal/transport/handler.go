package transport

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"time"

	"github.com/Shocam7/WhichisViz/internal/config"
	apperrors "github.com/Shocam7/WhichisViz/internal/errors"
	"github.com/Shocam7/WhichisViz/internal/eventlog"
	"github.com/Shocam7/WhichisViz/internal/geometry"
	"github.com/Shocam7/WhichisViz/internal/logger"
	"github.com/Shocam7/WhichisViz/internal/session"
	"github.com/Shocam7/WhichisViz/internal/visualize"
	"github.com/Shocam7/WhichisViz/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

type SelectRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Canvas struct {
		PixelWidth    int `json:"pixel_width" binding:"required"`
		PixelHeight   int `json:"pixel_height" binding:"required"`
		DisplayWidth  int `json:"display_width" binding:"required"`
		DisplayHeight int `json:"display_height" binding:"required"`
	} `json:"canvas" binding:"required"`
}

type ScanRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type RenderEndpointRequest struct {
	Endpoint string `json:"endpoint"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// Handler exposes the capture/select/visualize session over HTTP.
type Handler struct {
	machine   *session.Machine
	renderer  *visualize.RendererClient
	assets    *visualize.AssetStore
	surface   *visualize.Surface
	events    *eventlog.Log
	cfg       *config.Config
	validator *validation.EndpointValidator
}

func NewHandler(machine *session.Machine, renderer *visualize.RendererClient, assets *visualize.AssetStore, surface *visualize.Surface, events *eventlog.Log, cfg *config.Config) http.Handler {
	h := &Handler{
		machine:   machine,
		renderer:  renderer,
		assets:    assets,
		surface:   surface,
		events:    events,
		cfg:       cfg,
		validator: validation.NewEndpointValidator(),
	}

	r := gin.Default()
	r.Use(requestLogger())

	r.GET("/health", h.health)
	r.GET("/state", h.state)
	r.GET("/blocks", h.blocks)
	r.GET("/log", h.log)
	r.GET("/canvas", h.canvas)
	r.GET("/assets/:id", h.asset)

	r.POST("/capture", h.capture)
	r.POST("/retake", h.retake)
	r.POST("/reset", h.reset)
	r.POST("/scan", h.scan)
	r.POST("/select", h.selectBlock)
	r.POST("/visualize", h.visualize)

	r.GET("/config/render-endpoint", h.getRenderEndpoint)
	r.PUT("/config/render-endpoint", h.setRenderEndpoint)

	return r
}

func (h *Handler) capture(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	blocks, err := h.machine.Capture(ctx)
	if err != nil {
		respondError(c, "capture failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": h.machine.SessionID(),
		"blocks":     blocks,
	})
}

// retake discards the frozen frame and resumes live scanning.
func (h *Handler) retake(c *gin.Context) {
	h.machine.Reset()
	h.machine.SetScanning(true)
	c.JSON(http.StatusOK, h.machine.Snapshot())
}

func (h *Handler) reset(c *gin.Context) {
	h.machine.Reset()
	c.JSON(http.StatusOK, h.machine.Snapshot())
}

func (h *Handler) scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "invalid request format", apperrors.NewValidationError("Invalid scan request", err))
		return
	}
	h.machine.SetScanning(*req.Enabled)
	c.JSON(http.StatusOK, gin.H{"scanning": *req.Enabled})
}

func (h *Handler) selectBlock(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "invalid request format", apperrors.NewValidationError("Invalid select request", err))
		return
	}

	canvas := geometry.Canvas{
		Pixel:   geometry.Size{Width: req.Canvas.PixelWidth, Height: req.Canvas.PixelHeight},
		Display: geometry.Size{Width: req.Canvas.DisplayWidth, Height: req.Canvas.DisplayHeight},
	}
	hit, selected, err := h.machine.Select(canvas, req.X, req.Y)
	if err != nil {
		respondError(c, "select failed", err)
		return
	}

	snap := h.machine.Snapshot()
	resp := gin.H{
		"hit":          hit.ID != "",
		"state":        snap.State,
		"selected_ids": snap.SelectedIDs,
	}
	if hit.ID != "" {
		resp["block"] = hit
		resp["selected"] = selected
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) visualize(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	viz, err := h.machine.Visualize(ctx)
	if err != nil {
		respondError(c, "visualize failed", err)
		return
	}

	plan := viz.Plan()
	resp := gin.H{
		"mode":      plan.Mode,
		"reasoning": plan.Reasoning,
	}
	if asset := viz.Asset(); asset != nil {
		resp["asset_url"] = asset.URL()
		resp["content_type"] = asset.ContentType
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.machine.Snapshot())
}

func (h *Handler) blocks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blocks": h.machine.Blocks()})
}

func (h *Handler) log(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": h.events.Entries()})
}

// canvas streams the current 2D surface as a PNG frame.
func (h *Handler) canvas(c *gin.Context) {
	snapshot := h.surface.Snapshot()
	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "no-store")
	if err := png.Encode(c.Writer, snapshot); err != nil {
		logger.WithError(err).Error("Canvas frame encode failed")
	}
}

func (h *Handler) asset(c *gin.Context) {
	asset, ok := h.assets.Get(c.Param("id"))
	if !ok {
		// Released assets are gone for good, not a client mistake.
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{
			Error:   http.StatusText(http.StatusNotFound),
			Message: "unknown or released asset",
		})
		return
	}
	c.Data(http.StatusOK, asset.ContentType, asset.Data)
}

func (h *Handler) getRenderEndpoint(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"endpoint":   h.renderer.Endpoint(),
		"configured": h.renderer.Endpoint() != "",
	})
}

func (h *Handler) setRenderEndpoint(c *gin.Context) {
	var req RenderEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "invalid request format", apperrors.NewValidationError("Invalid endpoint request", err))
		return
	}
	// Empty clears the endpoint; that is a legal configuration.
	if req.Endpoint != "" {
		if err := h.validator.ValidateEndpoint(req.Endpoint); err != nil {
			respondError(c, "invalid render endpoint", err)
			return
		}
	}
	h.renderer.SetEndpoint(req.Endpoint)
	logger.WithField("endpoint", req.Endpoint).Info("Render endpoint updated")
	c.JSON(http.StatusOK, gin.H{
		"endpoint":   req.Endpoint,
		"configured": req.Endpoint != "",
	})
}

func (h *Handler) health(c *gin.Context) {
	resp := gin.H{
		"status":   "available",
		"version":  "1.0.0",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"state":    h.machine.State(),
		"degraded": h.machine.Snapshot().Degraded,
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp["memory"] = gin.H{
			"total_mb":     vm.Total / 1024 / 1024,
			"used_mb":      vm.Used / 1024 / 1024,
			"used_percent": fmt.Sprintf("%.1f", vm.UsedPercent),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Debug("Request handled")
	}
}

func respondError(c *gin.Context, message string, err error) {
	code := apperrors.GetStatusCode(err)

	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Type = string(appErr.Type)
	}
	c.AbortWithStatusJSON(code, resp)
}
