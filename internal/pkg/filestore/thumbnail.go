package filestore

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// ThumbnailWidth is the pixel width of generated attachment thumbnails.
const ThumbnailWidth = 320

// IsThumbnailable reports whether a thumbnail can be generated for the
// given content type.
func IsThumbnailable(contentType string) bool {
	if !strings.HasPrefix(contentType, "image/") {
		return false
	}
	// SVG is never accepted as an upload; webp/avif decoding is not wired.
	switch contentType {
	case "image/svg+xml", "image/webp", "image/avif":
		return false
	}
	return true
}

// GenerateThumbnail produces a jpeg thumbnail for an image attachment,
// correcting camera orientation from EXIF data when present.
func GenerateThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = applyExifOrientation(data, img)

	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// applyExifOrientation rotates or flips the decoded image according to the
// EXIF Orientation tag. Images without EXIF data pass through unchanged.
func applyExifOrientation(data []byte, img image.Image) image.Image {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// Most png/gif uploads have no EXIF block.
		return img
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		log.Debugf("[FileStore] Unreadable EXIF orientation: %v", err)
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
