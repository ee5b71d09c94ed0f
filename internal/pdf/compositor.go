// Package pdf stamps images onto existing PDF documents.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"math"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var (
	ErrMalformedPDF        = errors.New("malformed pdf")
	ErrPageIndexOutOfRange = errors.New("page index out of range")
	ErrInvalidImage        = errors.New("invalid image")
)

// QR stamp geometry, in points.
const (
	QRSize   = 80.0
	QRMargin = 30.0
)

// Placement positions an image on a page. Coordinates are in points with the
// origin at the bottom-left corner of the page.
type Placement struct {
	PageIndex     int
	X, Y          float64
	Width, Height float64
}

// QRPlacement anchors the QR stamp QRMargin from the right and bottom edges
// of the first page.
func QRPlacement(pageWidth float64) Placement {
	return Placement{
		PageIndex: 0,
		X:         pageWidth - QRSize - QRMargin,
		Y:         QRMargin,
		Width:     QRSize,
		Height:    QRSize,
	}
}

var disableConfigDir sync.Once

// Compositor overlays images on PDF pages using pdfcpu. It is safe for
// concurrent use.
type Compositor struct {
	validation int
}

// NewCompositor returns a Compositor that validates input in relaxed mode.
func NewCompositor() *Compositor {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Compositor{validation: model.ValidationRelaxed}
}

// pdfcpu records the running command on its configuration, so every call
// gets its own.
func (c *Compositor) conf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = c.validation
	return conf
}

// PageSize returns the width and height in points of the page at pageIndex.
func (c *Compositor) PageSize(pdf []byte, pageIndex int) (float64, float64, error) {
	dims, err := c.pageDims(pdf)
	if err != nil {
		return 0, 0, err
	}
	if pageIndex < 0 || pageIndex >= len(dims) {
		return 0, 0, fmt.Errorf("%w: page %d of %d", ErrPageIndexOutOfRange, pageIndex, len(dims))
	}
	return dims[pageIndex].Width, dims[pageIndex].Height, nil
}

// PageCount returns the number of pages of pdf.
func (c *Compositor) PageCount(pdf []byte) (int, error) {
	dims, err := c.pageDims(pdf)
	if err != nil {
		return 0, err
	}
	return len(dims), nil
}

func (c *Compositor) pageDims(pdf []byte) ([]types.Dim, error) {
	ctx, err := api.ReadContext(bytes.NewReader(pdf), c.conf())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPDF, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPDF, err)
	}
	if ctx.PageCount == 0 {
		return nil, nil
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPDF, err)
	}
	return dims, nil
}

// EmbedImage draws the PNG image on the page selected by p and returns the
// re-serialized document. The image keeps its aspect ratio: p.Width sets the
// scale and p.Height must agree with it.
func (c *Compositor) EmbedImage(pdf, image []byte, p Placement) ([]byte, error) {
	scale, err := imageScale(image, p)
	if err != nil {
		return nil, err
	}
	pageCount, err := c.PageCount(pdf)
	if err != nil {
		return nil, err
	}
	if p.PageIndex < 0 || p.PageIndex >= pageCount {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageIndexOutOfRange, p.PageIndex, pageCount)
	}
	return c.stamp(pdf, image, p, scale)
}

// StampQR draws a QR image at QRPlacement on the first page, sized from that
// page's width.
func (c *Compositor) StampQR(pdf, image []byte) ([]byte, error) {
	width, _, err := c.PageSize(pdf, 0)
	if err != nil {
		return nil, err
	}
	p := QRPlacement(width)
	scale, err := imageScale(image, p)
	if err != nil {
		return nil, err
	}
	return c.stamp(pdf, image, p, scale)
}

// imageScale returns the factor that maps image pixels onto p.Width points.
func imageScale(image []byte, p Placement) (float64, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(image))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 || p.Width <= 0 || p.Height <= 0 {
		return 0, fmt.Errorf("%w: empty image or placement", ErrInvalidImage)
	}
	scale := p.Width / float64(cfg.Width)
	if math.Abs(scale*float64(cfg.Height)-p.Height) > 0.5 {
		return 0, fmt.Errorf("%w: %dx%d image cannot fill %.1fx%.1f without distortion",
			ErrInvalidImage, cfg.Width, cfg.Height, p.Width, p.Height)
	}
	return scale, nil
}

// stamp expects p.PageIndex to be a page of pdf.
func (c *Compositor) stamp(pdf, image []byte, p Placement, scale float64) ([]byte, error) {
	desc := fmt.Sprintf("position:bl, offset:%.2f %.2f, scalefactor:%.6f abs, rotation:0, opacity:1", p.X, p.Y, scale)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(image), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	var out bytes.Buffer
	pages := []string{fmt.Sprintf("%d", p.PageIndex+1)}
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, pages, wm, c.conf()); err != nil {
		return nil, fmt.Errorf("failed to stamp image on page %d: %w", p.PageIndex+1, err)
	}
	return out.Bytes(), nil
}
