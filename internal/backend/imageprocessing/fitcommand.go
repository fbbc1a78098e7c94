package imageprocessing

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
)

const FitCommandName = "FitCommand"

// FitCommand shrinks an image so it fits inside a width x height box while keeping its
// aspect ratio. Images that already fit are never enlarged. Output is always PNG.
type FitCommand struct {
	width  int
	height int
}

func NewFitCommand(params map[string]any) (Command, error) {
	if err := validateRequiredParams(params, []string{"width", "height"}); err != nil {
		return nil, err
	}
	return NewFitCommandWithSize(getIntParam(params, "width", 0), getIntParam(params, "height", 0))
}

func NewFitCommandWithSize(width, height int) (*FitCommand, error) {
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}
	if height <= 0 {
		return nil, fmt.Errorf("height must be positive, got %d", height)
	}
	return &FitCommand{width: width, height: height}, nil
}

func (c *FitCommand) Name() string {
	return FitCommandName
}

func (c *FitCommand) Execute(imageData []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	newWidth, newHeight := fitDimensions(bounds.Dx(), bounds.Dy(), c.width, c.height)
	if newWidth == bounds.Dx() && newHeight == bounds.Dy() {
		if bytes.HasPrefix(imageData, pngSignature) {
			return imageData, nil
		}
		return encodePNG(src)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	drawScaledNearest(dst, src)
	return encodePNG(dst)
}

// fitDimensions limits width first, then height, each time preserving the aspect ratio.
// Neither side drops below one pixel.
func fitDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	aspect := float64(width) / float64(height)

	newWidth, newHeight := width, height
	if newWidth > maxWidth {
		newWidth = maxWidth
		newHeight = int(float64(maxWidth) / aspect)
	}
	if newHeight > maxHeight {
		newHeight = maxHeight
		newWidth = int(float64(maxHeight) * aspect)
	}
	return max(newWidth, 1), max(newHeight, 1)
}

// drawScaledNearest fills dst with a nearest-neighbour resample of src.
func drawScaledNearest(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	dw, dh := dst.Bounds().Dx(), dst.Bounds().Dy()

	xMap := make([]int, dw)
	for x := range dw {
		xMap[x] = sb.Min.X + min(x*sb.Dx()/dw, sb.Dx()-1)
	}

	// convert once so the hot loop reads from a concrete type
	rgba, ok := src.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(sb)
		draw.Draw(rgba, sb, src, sb.Min, draw.Src)
	}

	parallelFor(dh, func(y int) {
		srcY := sb.Min.Y + min(y*sb.Dy()/dh, sb.Dy()-1)
		for x := range dw {
			dst.SetRGBA(x, y, rgba.RGBAAt(xMap[x], srcY))
		}
	})
}

func init() {
	mustRegister(FitCommandName, NewFitCommand)
}
