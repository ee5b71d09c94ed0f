package qr

import (
	"bytes"
	"context"
	"image"
	_ "image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte) string {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)
	res, err := zxingqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return res.GetText()
}

func TestLocalEncoder_RoundTrip(t *testing.T) {
	enc := NewLocalEncoder()
	urls := []string{
		"https://pecas.example.com/v/abc123",
		"http://localhost:8080/v/0z9y8x",
		"https://escritorio.adv.br/app/v/q1w2e3",
	}
	for _, u := range urls {
		t.Run(u, func(t *testing.T) {
			data, err := enc.Encode(context.Background(), u, 200)
			require.NoError(t, err)

			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 200, cfg.Width)
			assert.Equal(t, 200, cfg.Height)

			assert.Equal(t, u, decode(t, data))
		})
	}
}

func TestLocalEncoder_InvalidInput(t *testing.T) {
	enc := NewLocalEncoder()
	_, err := enc.Encode(context.Background(), "", 200)
	assert.ErrorIs(t, err, ErrEncode)
	_, err = enc.Encode(context.Background(), "https://x/v/abc123", 0)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestRemoteEncoder(t *testing.T) {
	landing := "https://pecas.example.com/v/abc123?a=1&b=2"
	good, err := NewLocalEncoder().Encode(context.Background(), landing, 200)
	require.NoError(t, err)

	tests := []struct {
		name    string
		status  int
		body    []byte
		wantErr bool
	}{
		{name: "png payload", status: http.StatusOK, body: good},
		{name: "provider error", status: http.StatusBadGateway, body: good, wantErr: true},
		{name: "malformed payload", status: http.StatusOK, body: []byte("<html>oops</html>"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotData, gotSize string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotData = r.URL.Query().Get("data")
				gotSize = r.URL.Query().Get("size")
				w.WriteHeader(tt.status)
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			data, err := NewRemoteEncoder(srv.URL, srv.Client()).Encode(context.Background(), landing, 200)
			assert.Equal(t, landing, gotData)
			assert.Equal(t, "200x200", gotSize)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEncode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, landing, decode(t, data))
		})
	}
}
