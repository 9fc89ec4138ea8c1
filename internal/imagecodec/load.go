package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Loader turns arbitrary operator-picked image files into bitmaps ready for
// Encode. Raster formats are handled by the registered decoders; SVG input
// is rasterized onto a white canvas. The fallback dimensions apply only when
// an SVG lacks explicit width/height attributes.
type Loader struct {
	SVGFallbackWidth  int
	SVGFallbackHeight int
}

// NewLoader returns a loader with a 1024x1024 SVG fallback size.
func NewLoader() *Loader {
	return &Loader{
		SVGFallbackWidth:  1024,
		SVGFallbackHeight: 1024,
	}
}

// Load decodes data into a bitmap. Supported raster formats: JPEG, PNG, GIF,
// BMP, TIFF, WebP. SVG content is detected by inspecting the data and
// rendered instead of decoded.
func (l *Loader) Load(data []byte) (image.Image, error) {
	if isSVGData(data) {
		return l.renderSVG(data)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	slog.Debug("Load: decoded raster image",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return img, nil
}

func (l *Loader) renderSVG(data []byte) (image.Image, error) {
	width, height, ok := parseSVGExplicitSize(data)
	if !ok {
		width = l.SVGFallbackWidth
		height = l.SVGFallbackHeight
		slog.Debug("renderSVG: SVG lacks explicit size; using fallback",
			"width", width, "height", height)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", width, height)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, dst, dst.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	icon.Draw(dasher, 1.0)

	return dst, nil
}

// isSVGData performs a lightweight detection of SVG content by looking for
// an <svg> tag or the SVG namespace in the first few KB of the data.
func isSVGData(data []byte) bool {
	n := len(data)
	if n == 0 {
		return false
	}
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("xmlns=\"http://www.w3.org/2000/svg\"")) ||
		bytes.Contains(header, []byte("xmlns='http://www.w3.org/2000/svg'"))
}

// parseSVGExplicitSize extracts width/height attributes from the opening
// <svg> tag. Returns ok=false when either is missing or non-positive;
// viewBox is deliberately not treated as a pixel size.
func parseSVGExplicitSize(data []byte) (int, int, bool) {
	n := len(data)
	if n > 8192 {
		n = 8192
	}
	s := strings.ToLower(string(data[:n]))

	start := strings.Index(s, "<svg")
	if start < 0 {
		return 0, 0, false
	}
	end := strings.Index(s[start:], ">")
	if end < 0 {
		end = len(s) - start
	}
	tag := s[start : start+end]

	width, wOK := parseNumericAttr(tag, "width")
	height, hOK := parseNumericAttr(tag, "height")
	if wOK && hOK && width > 0 && height > 0 {
		return width, height, true
	}
	return 0, 0, false
}

// parseNumericAttr reads the leading integer of a quoted attribute value,
// e.g. width="640px" yields 640.
func parseNumericAttr(tag, attr string) (int, bool) {
	pos := strings.Index(tag, attr+"=")
	if pos < 0 {
		return 0, false
	}
	rest := tag[pos+len(attr)+1:]
	if len(rest) == 0 || (rest[0] != '"' && rest[0] != '\'') {
		return 0, false
	}
	quote := rest[0]
	rest = rest[1:]
	end := strings.IndexByte(rest, quote)
	if end >= 0 {
		rest = rest[:end]
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	value, err := strconv.Atoi(rest[:digits])
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
