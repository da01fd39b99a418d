package factory

import (
	"fmt"

	"github.com/Shocam7/WhichisViz/internal/config"
	"github.com/Shocam7/WhichisViz/internal/detect"
	"github.com/Shocam7/WhichisViz/internal/storage"
)

// DetectorBackend selects the text-detection implementation
type DetectorBackend string

const (
	// VisionBackend talks to a remote vision model
	VisionBackend DetectorBackend = "vision"
	// TesseractBackend runs on-device OCR
	TesseractBackend DetectorBackend = "tesseract"
)

// ArchiveBackend selects where frozen capture frames are stored
type ArchiveBackend string

const (
	// AzureArchive uploads frames to Azure blob storage
	AzureArchive ArchiveBackend = "azure"
	// NoArchive discards frames
	NoArchive ArchiveBackend = "none"
)

// NewDetector creates the configured text-detection backend
func NewDetector(cfg config.DetectionConfig) (detect.Detector, error) {
	switch DetectorBackend(cfg.Backend) {
	case VisionBackend:
		return detect.NewVisionDetector(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case TesseractBackend:
		return detect.NewTesseractDetector(cfg.Language)
	default:
		return nil, fmt.Errorf("unsupported detection backend: %s", cfg.Backend)
	}
}

// NewArchiver creates the frame archiver; with no connection string
// configured, archival is a no-op.
func NewArchiver(cfg config.ArchiveConfig) (storage.Archiver, error) {
	if cfg.ConnectionString == "" {
		return storage.NoopArchiver{}, nil
	}
	return storage.NewAzureArchiver(cfg.ConnectionString, cfg.Container)
}
