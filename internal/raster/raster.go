// Package raster decodes the bitmap and SVG images used as map
// backgrounds and point markers.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmpty is returned when there is no image data to decode.
var ErrEmpty = errors.New("empty image data")

// IsSVG sniffs data for an SVG document.
func IsSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimSpace(head)
	return bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(data, []byte("<svg"))) ||
		bytes.Contains(head, []byte("<svg"))
}

// Decode decodes a bitmap in any registered format.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// RasterizeSVG renders an SVG document into a w x h RGBA image.
func RasterizeSVG(data []byte, w, h int) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("rasterize svg: invalid size %dx%d", w, h)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return img, nil
}

// Marker returns a w x h image for marker data. SVG is rasterized at the
// requested size, bitmaps are decoded as is and scaled when drawn.
func Marker(data []byte, w, h int) (image.Image, error) {
	if IsSVG(data) {
		return RasterizeSVG(data, w, h)
	}
	return Decode(data)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
