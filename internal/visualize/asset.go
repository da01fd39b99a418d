package visualize

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/Shocam7/WhichisViz/internal/errors"

	"github.com/google/uuid"
)

// maxAssetSize bounds a fetched 3D payload (64 MiB).
const maxAssetSize = 64 << 20

// RendererClient fetches binary 3D assets from the user-configured render
// endpoint. The endpoint is editable at runtime and may be empty; with no
// endpoint the fetch is never attempted and a distinct configuration error
// is reported instead.
type RendererClient struct {
	mu       sync.RWMutex
	endpoint string
	client   *http.Client
}

// NewRendererClient creates a 3D renderer client. endpoint may be empty.
func NewRendererClient(endpoint string, timeout time.Duration) *RendererClient {
	return &RendererClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the current endpoint, possibly empty.
func (r *RendererClient) Endpoint() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endpoint
}

// SetEndpoint updates the endpoint at runtime.
func (r *RendererClient) SetEndpoint(endpoint string) {
	r.mu.Lock()
	r.endpoint = endpoint
	r.mu.Unlock()
}

// Fetch posts the plan script and returns the binary asset payload.
func (r *RendererClient) Fetch(ctx context.Context, script string) ([]byte, string, error) {
	endpoint := r.Endpoint()
	if endpoint == "" {
		return nil, "", apperrors.NewRenderConfigError(
			"no 3D rendering endpoint configured; set render.endpoint before visualizing in 3D")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader([]byte(script)))
	if err != nil {
		return nil, "", apperrors.NewRenderFetchError("invalid render endpoint", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", apperrors.NewRenderFetchError("3D asset fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperrors.NewRenderFetchError(
			fmt.Sprintf("render endpoint returned status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return nil, "", apperrors.NewRenderFetchError("failed to read 3D asset payload", err)
	}
	if len(data) == 0 {
		return nil, "", apperrors.NewRenderFetchError("render endpoint returned an empty payload", nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// Asset is a locally owned 3D payload, addressable while registered.
type Asset struct {
	ID          string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// URL is the local address the asset is served from while alive.
func (a *Asset) URL() string {
	return "/assets/" + a.ID
}

// AssetStore holds live asset handles. An asset's lifetime is tied to its
// visualization: it is released when the visualization is replaced or the
// session resets.
type AssetStore struct {
	mu     sync.RWMutex
	assets map[string]*Asset
}

// NewAssetStore creates an empty store.
func NewAssetStore() *AssetStore {
	return &AssetStore{assets: make(map[string]*Asset)}
}

// Put registers a payload under a fresh handle.
func (s *AssetStore) Put(data []byte, contentType string) *Asset {
	asset := &Asset{
		ID:          uuid.NewString(),
		ContentType: contentType,
		Data:        data,
		CreatedAt:   time.Now(),
	}
	s.mu.Lock()
	s.assets[asset.ID] = asset
	s.mu.Unlock()
	return asset
}

// Get looks an asset up by ID.
func (s *AssetStore) Get(id string) (*Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	return a, ok
}

// Release drops the asset. Releasing an unknown ID is a no-op.
func (s *AssetStore) Release(id string) {
	s.mu.Lock()
	delete(s.assets, id)
	s.mu.Unlock()
}

// Len reports live assets.
func (s *AssetStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}
