package pdf

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/Lllllllleong/legaldocflow/internal/qr"
	"github.com/Lllllllleong/legaldocflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	page1Content = "0 0 1 rg 72 700 100 50 re f"
	page2Content = "1 0 0 rg 72 600 200 40 re f"
)

func qrImage(t *testing.T) []byte {
	t.Helper()
	img, err := qr.NewLocalEncoder().Encode(context.Background(), "https://pecas.example.com/v/abc123", 200)
	require.NoError(t, err)
	return img
}

func TestQRPlacement(t *testing.T) {
	p := QRPlacement(612)
	assert.Equal(t, Placement{PageIndex: 0, X: 502, Y: 30, Width: 80, Height: 80}, p)

	a4 := QRPlacement(595.28)
	assert.InDelta(t, 485.28, a4.X, 1e-9)
}

func TestCompositor_EmbedImage(t *testing.T) {
	c := NewCompositor()
	src := testutil.PDF(
		testutil.LetterPage(page1Content),
		testutil.PageSpec{Width: 595, Height: 842, Content: page2Content},
	)

	w, h, err := c.PageSize(src, 0)
	require.NoError(t, err)
	assert.Equal(t, 612.0, w)
	assert.Equal(t, 792.0, h)

	out, err := c.EmbedImage(src, qrImage(t), QRPlacement(w))
	require.NoError(t, err)
	assert.NotEqual(t, src, out)

	n, err := c.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for i, want := range [][2]float64{{612, 792}, {595, 842}} {
		w, h, err := c.PageSize(out, i)
		require.NoError(t, err)
		assert.Equal(t, want[0], w)
		assert.Equal(t, want[1], h)
	}

	assert.True(t, bytes.Contains(out, []byte(page1Content)), "first page drawing lost")
	assert.True(t, bytes.Contains(out, []byte(page2Content)), "second page drawing lost")
	assert.Regexp(t, regexp.MustCompile(`/Subtype\s*/Image`), string(out))
}

func TestCompositor_Errors(t *testing.T) {
	c := NewCompositor()
	img := qrImage(t)
	onePage := testutil.PDF(testutil.LetterPage(page1Content))

	tests := []struct {
		name    string
		pdf     []byte
		image   []byte
		place   Placement
		wantErr error
	}{
		{name: "not a pdf", pdf: []byte("hello"), image: img, place: QRPlacement(612), wantErr: ErrMalformedPDF},
		{name: "zero pages", pdf: testutil.PDF(), image: img, place: QRPlacement(612), wantErr: ErrPageIndexOutOfRange},
		{name: "page beyond end", pdf: onePage, image: img, place: Placement{PageIndex: 1, X: 10, Y: 10, Width: 80, Height: 80}, wantErr: ErrPageIndexOutOfRange},
		{name: "negative page", pdf: onePage, image: img, place: Placement{PageIndex: -1, X: 10, Y: 10, Width: 80, Height: 80}, wantErr: ErrPageIndexOutOfRange},
		{name: "image not png", pdf: onePage, image: []byte("GIF89a"), place: QRPlacement(612), wantErr: ErrInvalidImage},
		{name: "distorting placement", pdf: onePage, image: img, place: Placement{X: 10, Y: 10, Width: 80, Height: 40}, wantErr: ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.EmbedImage(tt.pdf, tt.image, tt.place)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCompositor_PageSizeOutOfRange(t *testing.T) {
	c := NewCompositor()
	tests := []struct {
		name  string
		pdf   []byte
		index int
	}{
		{name: "past last page", pdf: testutil.PDF(testutil.LetterPage(page1Content)), index: 3},
		{name: "zero pages", pdf: testutil.PDF(), index: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.PageSize(tt.pdf, tt.index)
			assert.ErrorIs(t, err, ErrPageIndexOutOfRange)
		})
	}
}

func TestCompositor_StampQR(t *testing.T) {
	c := NewCompositor()
	src := testutil.PDF(
		testutil.PageSpec{Width: 595, Height: 842, Content: page1Content},
		testutil.LetterPage(page2Content),
	)

	out, err := c.StampQR(src, qrImage(t))
	require.NoError(t, err)

	n, err := c.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, bytes.Contains(out, []byte(page1Content)))
	assert.Regexp(t, regexp.MustCompile(`/Subtype\s*/Image`), string(out))

	_, err = c.StampQR(testutil.PDF(), qrImage(t))
	assert.ErrorIs(t, err, ErrPageIndexOutOfRange)

	_, err = c.StampQR([]byte("hello"), qrImage(t))
	assert.ErrorIs(t, err, ErrMalformedPDF)
}
