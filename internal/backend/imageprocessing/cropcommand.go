package imageprocessing

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
)

const CropCommandName = "CropCommand"

// CropCommand cuts the largest centered region with the configured aspect ratio out of an
// image. The width and height parameters only define the ratio; no scaling happens.
type CropCommand struct {
	width  int
	height int
}

func NewCropCommand(params map[string]any) (Command, error) {
	if err := validateRequiredParams(params, []string{"width", "height"}); err != nil {
		return nil, err
	}
	width := getIntParam(params, "width", 0)
	height := getIntParam(params, "height", 0)
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}
	if height <= 0 {
		return nil, fmt.Errorf("height must be positive, got %d", height)
	}
	return &CropCommand{width: width, height: height}, nil
}

func (c *CropCommand) Name() string {
	return CropCommandName
}

func (c *CropCommand) Execute(imageData []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	rect := centeredCrop(bounds, c.width, c.height)
	if rect == bounds && bytes.HasPrefix(imageData, pngSignature) {
		return imageData, nil
	}

	slog.Debug("CropCommand: cropping",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"crop_width", rect.Dx(),
		"crop_height", rect.Dy())

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return encodePNG(dst)
}

// centeredCrop returns the largest rectangle inside bounds with ratio width:height,
// centered in bounds. Integer cross multiplication avoids float rounding on exact ratios.
func centeredCrop(bounds image.Rectangle, width, height int) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	cropW, cropH := w, h
	switch {
	case w*height > h*width:
		cropW = max(h*width/height, 1)
	case w*height < h*width:
		cropH = max(w*height/width, 1)
	}
	x0 := bounds.Min.X + (w-cropW)/2
	y0 := bounds.Min.Y + (h-cropH)/2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}

func init() {
	mustRegister(CropCommandName, NewCropCommand)
}
