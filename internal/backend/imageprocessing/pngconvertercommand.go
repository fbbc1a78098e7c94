package imageprocessing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const PngConverterCommandName = "PngConverterCommand"

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// PngConverterCommand re-encodes any supported raster format, or rasterises an SVG, as PNG.
type PngConverterCommand struct {
	svgFallbackWidth  int
	svgFallbackHeight int
}

// NewPngConverterCommand reads the optional svgFallbackWidth/svgFallbackHeight parameters,
// used only for SVG input without explicit dimensions.
func NewPngConverterCommand(params map[string]any) (Command, error) {
	w := getIntParam(params, "svgFallbackWidth", 0)
	h := getIntParam(params, "svgFallbackHeight", 0)
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("svg fallback size must not be negative, got %dx%d", w, h)
	}
	return &PngConverterCommand{
		svgFallbackWidth:  w,
		svgFallbackHeight: h,
	}, nil
}

func (c *PngConverterCommand) Name() string {
	return PngConverterCommandName
}

func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	if bytes.HasPrefix(imageData, pngSignature) {
		return imageData, nil
	}
	if isSVGData(imageData) {
		return c.convertSVG(imageData)
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return encodePNG(img)
}

func (c *PngConverterCommand) convertSVG(imageData []byte) ([]byte, error) {
	w, h, ok := parseSvgExplicitSize(imageData)
	if !ok {
		w, h = c.svgFallbackWidth, c.svgFallbackHeight
		if w <= 0 || h <= 0 {
			return nil, fmt.Errorf("svg has no explicit size and no fallback size is configured")
		}
	}
	out, err := renderSVGToPNG(imageData, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to render SVG to PNG: %w", err)
	}
	return out, nil
}

// parseSvgExplicitSize extracts the width and height attributes of the root svg tag.
// viewBox is not treated as a pixel size.
func parseSvgExplicitSize(data []byte) (int, int, bool) {
	s := strings.ToLower(string(data[:min(len(data), 8192)]))
	i := strings.Index(s, "<svg")
	if i < 0 {
		return 0, 0, false
	}
	tag := s[i:]
	if j := strings.Index(tag, ">"); j >= 0 {
		tag = tag[:j]
	}
	tag = strings.NewReplacer("\n", " ", "\t", " ", "\r", " ").Replace(tag)

	w, wOk := parseNumericAttr(tag, "width")
	h, hOk := parseNumericAttr(tag, "height")
	if wOk && hOk {
		return w, h, true
	}
	return 0, 0, false
}

// parseNumericAttr returns the leading integer of a quoted attribute value, e.g. width="123px".
func parseNumericAttr(tag, attr string) (int, bool) {
	for _, quote := range []string{`"`, `'`} {
		// leading space keeps "stroke-width" from matching "width"
		key := " " + attr + "=" + quote
		pos := strings.Index(tag, key)
		if pos < 0 {
			continue
		}
		val := tag[pos+len(key):]
		if end := strings.Index(val, quote); end >= 0 {
			val = val[:end]
		}
		num, found := 0, false
		for i := 0; i < len(val); i++ {
			ch := val[i]
			if ch < '0' || ch > '9' {
				break
			}
			found = true
			num = num*10 + int(ch-'0')
		}
		if found && num > 0 {
			return num, true
		}
		return 0, false
	}
	return 0, false
}

// isSVGData checks the first 4KB for an svg tag.
func isSVGData(data []byte) bool {
	header := bytes.ToLower(data[:min(len(data), 4096)])
	return bytes.Contains(header, []byte("<svg"))
}

func renderSVGToPNG(svgData []byte, targetW, targetH int) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	return encodePNG(dst)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	bb := img.Bounds()
	buf.Grow(bb.Dx() * bb.Dy())
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	mustRegister(PngConverterCommandName, NewPngConverterCommand)
}
