// Package storage archives frozen capture frames to blob storage. Archival
// is best effort and never blocks the pipeline.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Shocam7/WhichisViz/internal/detect"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// Archiver stores the frame of a captured session.
type Archiver interface {
	ArchiveFrame(ctx context.Context, sessionID string, frame detect.Frame) error
}

// NoopArchiver is used when no archive storage is configured.
type NoopArchiver struct{}

// ArchiveFrame discards the frame.
func (NoopArchiver) ArchiveFrame(ctx context.Context, sessionID string, frame detect.Frame) error {
	return nil
}

// AzureArchiver uploads frames to an Azure Blob Storage container.
type AzureArchiver struct {
	client    *azblob.Client
	container string
}

// NewAzureArchiver creates an archiver from a connection string.
func NewAzureArchiver(connectionString, container string) (*AzureArchiver, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return &AzureArchiver{client: client, container: container}, nil
}

// ArchiveFrame uploads the frame as PNG under a session-scoped blob name.
func (a *AzureArchiver) ArchiveFrame(ctx context.Context, sessionID string, frame detect.Frame) error {
	encoded, err := frame.EncodePNG()
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	blobName := fmt.Sprintf("captures/%s/%s.png", time.Now().UTC().Format("2006-01-02"), sessionID)
	if _, err := a.client.UploadBuffer(ctx, a.container, blobName, encoded, nil); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}
