package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageBytes caps any image payload read from a remote source
const MaxImageBytes = 20 << 20

// BlobScheme selects the Azure Blob source: azblob://<container>/<blob path>
const BlobScheme = "azblob"

// RawImage is an undecoded image payload together with its media type
type RawImage struct {
	Data        []byte
	ContentType string
}

// ImageFetcher retrieves raw image bytes from a reference
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) (*RawImage, error)
}

// sourceRouter dispatches references to the fetcher that owns their scheme
type sourceRouter struct {
	http ImageFetcher
	blob BlobStorage
}

// NewImageSource routes http(s) references to httpFetcher and azblob references
// to blob. blob may be nil when no storage account is configured.
func NewImageSource(httpFetcher ImageFetcher, blob BlobStorage) ImageFetcher {
	return &sourceRouter{http: httpFetcher, blob: blob}
}

func (r *sourceRouter) FetchImage(ctx context.Context, ref string) (*RawImage, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid image reference: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if r.http == nil {
			return nil, fmt.Errorf("no http image source configured")
		}
		return r.http.FetchImage(ctx, ref)
	case BlobScheme:
		if r.blob == nil {
			return nil, fmt.Errorf("blob storage is not configured")
		}
		return r.blob.GetImage(ctx, ref)
	default:
		return nil, fmt.Errorf("unsupported image scheme %q", u.Scheme)
	}
}

// DecodeImage decodes any registered format (jpeg, png, gif, webp, bmp, tiff)
// and returns the format name reported by the decoder.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// DetectContentType prefers a declared image media type and sniffs otherwise
func DetectContentType(declared string, data []byte) string {
	mediaType, _, _ := strings.Cut(declared, ";")
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	if strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	return http.DetectContentType(data)
}
