package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const fetchAttempts = 3

// HTTPImageFetcher implements ImageFetcher for http(s) URLs
type HTTPImageFetcher struct {
	client *http.Client
	// backoff is multiplied by the attempt number between retries
	backoff time.Duration
}

// errClientStatus marks responses that retrying cannot fix
var errClientStatus = errors.New("client error")

// NewHTTPImageFetcher creates an HTTP image fetcher. timeout bounds each attempt;
// zero falls back to 30 seconds.
func NewHTTPImageFetcher(timeout time.Duration) ImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Connection pooling tuned for single image downloads
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff: time.Second,
	}
}

// FetchImage downloads the image, retrying transport failures and 5xx
// responses with linear backoff. 4xx responses fail immediately.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (*RawImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Anemia-Screen/1.0")

	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		raw, err := h.try(req)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if errors.Is(err, errClientStatus) {
			break
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if attempt < fetchAttempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", fetchAttempts, lastErr)
}

// try performs a single request and reads a bounded body
func (h *HTTPImageFetcher) try(req *http.Request) (*RawImage, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: status code %d", errClientStatus, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", errClientStatus, MaxImageBytes)
	}

	return &RawImage{
		Data:        data,
		ContentType: DetectContentType(resp.Header.Get("Content-Type"), data),
	}, nil
}
