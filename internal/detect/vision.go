package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/Shocam7/WhichisViz/internal/errors"
	"github.com/Shocam7/WhichisViz/internal/geometry"
	"github.com/Shocam7/WhichisViz/internal/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// visionBoxScale is the coordinate scale vision-model responses use for
// box_2d values. Boxes arrive as [ymin, xmin, ymax, xmax] on 0–1000.
const visionBoxScale = 1000.0

// VisionDetector submits frames to a remote vision-model endpoint and
// normalizes its block responses into the canonical geometry model.
type VisionDetector struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewVisionDetector creates a detector backed by a remote vision endpoint.
func NewVisionDetector(endpoint, apiKey, model string, timeout time.Duration) *VisionDetector {
	return &VisionDetector{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:          4,
				MaxIdleConnsPerHost:   2,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		},
	}
}

type visionRequest struct {
	Model     string `json:"model,omitempty"`
	ImageData string `json:"image_data"`
	MimeType  string `json:"mime_type"`
}

type visionBlock struct {
	Text  string    `json:"text"`
	Box2D []float64 `json:"box_2d"`
}

type visionResponse struct {
	Blocks []visionBlock `json:"blocks"`
}

// Detect encodes the frame as PNG and submits it. Entries with a malformed
// box are dropped; an unparseable body is a malformed-response error so the
// caller can apply its empty-result policy.
func (d *VisionDetector) Detect(ctx context.Context, frame Frame) ([]geometry.Block, error) {
	encoded, err := frame.EncodePNG()
	if err != nil {
		return nil, apperrors.NewDetectionError("failed to encode frame", err)
	}

	body, err := json.Marshal(visionRequest{
		Model:     d.model,
		ImageData: base64.StdEncoding.EncodeToString(encoded),
		MimeType:  "image/png",
	})
	if err != nil {
		return nil, apperrors.NewDetectionError("failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewDetectionError("invalid detection endpoint", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.NewDetectionError("detection call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewDetectionError(
			fmt.Sprintf("detection endpoint returned status %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperrors.NewDetectionError("failed to read detection response", err)
	}

	var parsed visionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperrors.NewMalformedResponseError("unparseable detection response", err)
	}

	return d.normalize(parsed.Blocks), nil
}

// normalize rescales box_2d entries from the model's 0–1000 [ymin,xmin,
// ymax,xmax] convention into normalized [x0,y0,x1,y1] rects.
func (d *VisionDetector) normalize(raw []visionBlock) []geometry.Block {
	blocks := make([]geometry.Block, 0, len(raw))
	for i, entry := range raw {
		if len(entry.Box2D) != 4 || entry.Text == "" {
			logger.ForComponent("detect").WithFields(logrus.Fields{
				"index": i,
				"box":   entry.Box2D,
			}).Warn("Dropping malformed detection entry")
			continue
		}
		rect := geometry.Rect{
			X0: entry.Box2D[1] / visionBoxScale,
			Y0: entry.Box2D[0] / visionBoxScale,
			X1: entry.Box2D[3] / visionBoxScale,
			Y1: entry.Box2D[2] / visionBoxScale,
		}.Clamp()
		blocks = append(blocks, geometry.Block{
			ID:   uuid.NewString(),
			Text: entry.Text,
			Box:  rect,
		})
	}
	return blocks
}

// Name identifies the backend in logs.
func (d *VisionDetector) Name() string {
	return "vision"
}

// Close releases backend resources.
func (d *VisionDetector) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
