// Package image derives portrait posters from landscape cover art.
package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"mdc/internal/datatype"
)

// jpegQuality for encoded posters.
const jpegQuality = 92

// posterRatio is the width/height ratio of a DVD-style poster.
const posterRatio = 0.7

// MakePoster turns raw cover bytes into poster bytes according to the
// cut mode. Copy mode passes the bytes through untouched; smart and
// small modes crop the right portion of a landscape sleeve, where the
// front side sits.
func MakePoster(data []byte, cut int) ([]byte, error) {
	if cut == datatype.ImageCutCopy {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding cover: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	wantWidth := int(float64(height) * posterRatio)
	if wantWidth >= width {
		// Already portrait-ish, nothing to cut.
		return encodeJPEG(img)
	}

	crop := image.Rect(bounds.Max.X-wantWidth, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	cropped, err := subImage(img, crop)
	if err != nil {
		return nil, err
	}
	return encodeJPEG(cropped)
}

func subImage(img image.Image, r image.Rectangle) (image.Image, error) {
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if s, ok := img.(subImager); ok {
		return s.SubImage(r), nil
	}
	return nil, fmt.Errorf("cover image type %T does not support cropping", img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding poster: %w", err)
	}
	return buf.Bytes(), nil
}
