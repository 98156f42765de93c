// Package texture decodes glTF image payloads into RGBA pixels.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// ErrUnsupportedMimeType is returned for image types with no decoder.
var ErrUnsupportedMimeType = errors.New("unsupported image mime type")

// Decode decodes an image by mime type. An empty mime type sniffs the format
// from the data, as URI-referenced images may omit it.
func Decode(data []byte, mimeType string) (*image.RGBA, error) {
	var (
		img image.Image
		err error
	)
	r := bytes.NewReader(data)
	switch mimeType {
	case "image/png":
		img, err = png.Decode(r)
	case "image/jpeg":
		img, err = jpeg.Decode(r)
	case "image/webp":
		img, err = webp.Decode(r)
	case "image/bmp":
		img, err = bmp.Decode(r)
	case "":
		img, _, err = image.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMimeType, mimeType)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s image: %w", mimeType, err)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts any image to *image.RGBA with a zero origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
