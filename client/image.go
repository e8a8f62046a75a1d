package client

import (
	"bytes"

	"github.com/disintegration/imaging"
)

const maxImageWidth = 1024
const jpegQuality = 70

// PrepareImage downscales an image to the upload width and re-encodes it as
// JPEG so mobile-sized photos stay well under the server's size ceiling.
func PrepareImage(content []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
