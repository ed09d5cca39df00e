package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrNotImage = errors.New("asset is not an image")

// Asset is an image served by the game backend: a prompt target or a
// rendered result.
type Asset struct {
	ContentType string
	Data        []byte
}

// AssetClient fetches prompt and result images from the backend.
type AssetClient struct {
	base *BaseClient
}

func NewAssetClient(backendURL string) (*AssetClient, error) {
	base, err := NewBaseClient(backendURL)
	if err != nil {
		return nil, err
	}
	base.SetHeader("Accept", "image/*")
	return &AssetClient{base: base}, nil
}

// URL returns the absolute address of an image reference.
func (c *AssetClient) URL(ref string) (string, error) {
	u, err := c.base.Resolve(ref)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Fetch downloads the image at ref.
func (c *AssetClient) Fetch(ctx context.Context, ref string) (Asset, error) {
	resp, err := c.base.Get(ctx, ref)
	if err != nil {
		return Asset{}, fmt.Errorf("fetch asset %s: %w", ref, err)
	}
	ct := resp.ContentType
	if ct == "" {
		ct = http.DetectContentType(resp.Body)
	}
	if !strings.HasPrefix(ct, "image/") {
		log.Warn().Str("ref", ref).Str("content_type", ct).Msg("backend returned a non-image asset")
		return Asset{}, fmt.Errorf("%w: %s is %s", ErrNotImage, ref, ct)
	}
	return Asset{ContentType: ct, Data: resp.Body}, nil
}
