package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

const (
	PhotoMaxSize     = 240
	PhotoJpegQuality = 70
)

// ErrImageDecode is returned when an uploaded photo cannot be decoded as an
// image. Callers should surface it as a bad-input condition.
var ErrImageDecode = errors.New("unable to decode image")

// EncodePhoto converts an uploaded image into the compact string form
// stored on a person record: EXIF orientation is normalized, the image is
// scaled down so its longest side is at most maxSize (never scaled up),
// and the result is JPEG-encoded into a base64 data URL.
func EncodePhoto(data []byte, maxSize, jpegQuality int) (string, error) {
	if maxSize <= 0 {
		maxSize = PhotoMaxSize
	}
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = PhotoJpegQuality
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	img = normalizeOrientation(img, data)

	// Fit scales down preserving aspect ratio and leaves smaller images alone
	img = imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("failed to encode photo: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// normalizeOrientation applies the EXIF orientation tag, if present, so the
// stored photo displays upright everywhere. Images without usable EXIF data
// are returned unchanged.
func normalizeOrientation(img image.Image, raw []byte) image.Image {
	exifData, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return img
	}
	tag, err := exifData.Get(exif.Orientation)
	if err != nil || tag == nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}

	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
