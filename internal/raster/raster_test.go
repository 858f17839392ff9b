package raster

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

const square = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">
  <rect x="0" y="0" width="10" height="10" fill="#ff0000"/>
</svg>`

func TestIsSVG(t *testing.T) {
	assert.True(t, IsSVG([]byte(square)))
	assert.True(t, IsSVG([]byte(`<?xml version="1.0"?>`+"\n"+square)))
	assert.False(t, IsSVG([]byte{0x89, 'P', 'N', 'G'}))
}

func TestRasterizeSVG(t *testing.T) {
	img, err := RasterizeSVG([]byte(square), 20, 20)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())

	r, g, b, a := img.At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Greater(t, r, g)
	assert.Greater(t, r, b)
}

func TestRasterizeSVGErrors(t *testing.T) {
	_, err := RasterizeSVG(nil, 10, 10)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = RasterizeSVG([]byte(square), 0, 10)
	assert.Error(t, err)
}

func TestMarkerDecodesBitmaps(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(1, 1, color.RGBA{0, 0, 255, 255})
	data, err := EncodePNG(src)
	require.NoError(t, err)

	img, err := Marker(data, 50, 50)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())

	_, _, b, _ := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

func TestDecodeBMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	src.Set(2, 1, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	img, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	r, _, _, _ := img.At(2, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}
