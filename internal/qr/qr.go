// Package qr renders URLs as QR code PNG images.
package qr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrEncode wraps every failure to produce a QR image.
var ErrEncode = errors.New("qr encode failed")

// LocalEncoder renders QR codes in process.
type LocalEncoder struct {
	Level qrcode.RecoveryLevel
}

// NewLocalEncoder returns an encoder using medium error correction.
func NewLocalEncoder() *LocalEncoder {
	return &LocalEncoder{Level: qrcode.Medium}
}

// Encode returns a sizePx x sizePx PNG encoding url.
func (e *LocalEncoder) Encode(ctx context.Context, url string, sizePx int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if url == "" || sizePx <= 0 {
		return nil, fmt.Errorf("%w: empty content or non-positive size %d", ErrEncode, sizePx)
	}
	data, err := qrcode.Encode(url, e.Level, sizePx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

// checkPNG rejects payloads that are not decodable PNG images.
func checkPNG(data []byte) error {
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: payload is not a PNG image: %w", ErrEncode, err)
	}
	return nil
}
