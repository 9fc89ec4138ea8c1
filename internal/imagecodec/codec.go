package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	xdraw "golang.org/x/image/draw"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"

	// DefaultSizeLimit is the largest encoded image the backend accepts.
	DefaultSizeLimit = 2_000_000

	startQuality    = 90
	qualityStep     = 10
	minQuality      = 10
	downscaleFactor = 0.8
)

// ErrCompressionUnattainable is returned when the quality floor is reached
// without the encoded image fitting the size limit.
var ErrCompressionUnattainable = errors.New("image cannot be compressed below the size limit")

// Codec compresses bitmaps into data-URI payloads and decodes payloads back
// into raw image bytes. MIMETypes is the allow-list scanned during decode;
// payloads with any other prefix are treated as carrying no image.
type Codec struct {
	MIMETypes []string
	SizeLimit int
}

// Default returns a codec with the standard allow-list and size limit.
func Default() *Codec {
	return &Codec{
		MIMETypes: []string{MIMEJPEG, MIMEPNG, MIMEWebP},
		SizeLimit: DefaultSizeLimit,
	}
}

// Encode compresses img into a JPEG no larger than the configured size limit
// and wraps it as a data-URI payload. Quality starts at 90 and drops by 10
// each round; the working bitmap is additionally downscaled to 80% of its
// width every round. Fails with ErrCompressionUnattainable once quality
// reaches the floor; an oversized payload is never returned.
func (c *Codec) Encode(img image.Image) (payload string, mimeType string, err error) {
	working := img
	var buf bytes.Buffer

	for quality := startQuality; quality > minQuality; quality -= qualityStep {
		buf.Reset()
		if err := jpeg.Encode(&buf, working, &jpeg.Options{Quality: quality}); err != nil {
			return "", "", fmt.Errorf("failed to encode JPEG: %w", err)
		}

		slog.Debug("Encode: compression round",
			"quality", quality,
			"width", working.Bounds().Dx(),
			"height", working.Bounds().Dy(),
			"encoded_size", humanize.Bytes(uint64(buf.Len())),
			"size_limit", humanize.Bytes(uint64(c.SizeLimit)))

		if buf.Len() <= c.SizeLimit {
			return DataURI(MIMEJPEG, buf.Bytes()), MIMEJPEG, nil
		}

		working = downscale(working, float64(working.Bounds().Dx())*downscaleFactor)
	}

	slog.Debug("Encode: quality floor reached without fitting size limit",
		"size_limit", humanize.Bytes(uint64(c.SizeLimit)))
	return "", "", ErrCompressionUnattainable
}

// Decode strips the first matching allow-listed data-URI prefix and decodes
// the remainder as base64. Returns nil when no prefix matches or the base64
// data is invalid; callers render a placeholder instead of failing.
func (c *Codec) Decode(payload string) []byte {
	for _, mimeType := range c.MIMETypes {
		prefix := "data:" + mimeType + ";base64,"
		if !strings.HasPrefix(payload, prefix) {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(payload[len(prefix):])
		if err != nil {
			return nil
		}
		return data
	}
	return nil
}

// DataURI wraps raw image bytes as a data-URI payload.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// downscale resizes img so its longest side equals maxDimension, preserving
// aspect ratio, using Catmull-Rom resampling.
func downscale(img image.Image, maxDimension float64) image.Image {
	bounds := img.Bounds()
	width := float64(bounds.Dx())
	height := float64(bounds.Dy())
	aspectRatio := width / height

	var newWidth, newHeight int
	if width > height {
		newWidth = int(maxDimension)
		newHeight = int(maxDimension / aspectRatio)
	} else {
		newWidth = int(maxDimension * aspectRatio)
		newHeight = int(maxDimension)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
