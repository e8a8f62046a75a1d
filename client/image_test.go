package client

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "image/jpeg"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: uint8(x % 256), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareImageDownscalesWideImages(t *testing.T) {
	prepared, err := PrepareImage(encodePNG(t, 2048, 64))
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", http.DetectContentType(prepared))
	img, _, err := image.Decode(bytes.NewReader(prepared))
	require.NoError(t, err)
	assert.Equal(t, maxImageWidth, img.Bounds().Dx())
}

func TestPrepareImageKeepsSmallImages(t *testing.T) {
	prepared, err := PrepareImage(encodePNG(t, 320, 240))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(prepared))
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestPrepareImageRejectsNonImageInput(t *testing.T) {
	_, err := PrepareImage([]byte("not an image at all"))
	require.Error(t, err)
}
