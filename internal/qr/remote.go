package qr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultProviderURL is the public qrserver endpoint.
const DefaultProviderURL = "https://api.qrserver.com/v1/create-qr-code/"

const maxPayloadBytes = 4 << 20

// RemoteEncoder asks an HTTP provider speaking the qrserver API for the image.
type RemoteEncoder struct {
	endpoint string
	client   *http.Client
}

// NewRemoteEncoder returns an encoder for endpoint; an empty endpoint uses
// DefaultProviderURL and a nil client gets a 30s timeout.
func NewRemoteEncoder(endpoint string, client *http.Client) *RemoteEncoder {
	if endpoint == "" {
		endpoint = DefaultProviderURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RemoteEncoder{endpoint: endpoint, client: client}
}

// Encode fetches a PNG for url. Non-2xx responses and bodies that are not PNG
// images are reported as ErrEncode.
func (e *RemoteEncoder) Encode(ctx context.Context, content string, sizePx int) ([]byte, error) {
	if content == "" || sizePx <= 0 {
		return nil, fmt.Errorf("%w: empty content or non-positive size %d", ErrEncode, sizePx)
	}
	endpoint, err := url.Parse(e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid provider url: %w", ErrEncode, err)
	}
	q := endpoint.Query()
	q.Set("size", fmt.Sprintf("%dx%d", sizePx, sizePx))
	q.Set("format", "png")
	q.Set("data", content)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: provider request failed: %w", ErrEncode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: provider returned status %d", ErrEncode, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read provider response: %w", ErrEncode, err)
	}
	if err := checkPNG(data); err != nil {
		return nil, err
	}
	return data, nil
}
