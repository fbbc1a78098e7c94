package imageprocessing

import (
	"image"
	"testing"
)

func TestCenteredCrop(t *testing.T) {
	tests := []struct {
		name          string
		bounds        image.Rectangle
		width, height int
		want          image.Rectangle
	}{
		{"square from landscape", image.Rect(0, 0, 200, 100), 1, 1, image.Rect(50, 0, 150, 100)},
		{"square from portrait", image.Rect(0, 0, 100, 300), 1, 1, image.Rect(0, 100, 100, 200)},
		{"matching ratio is untouched", image.Rect(0, 0, 160, 90), 16, 9, image.Rect(0, 0, 160, 90)},
		{"offset bounds", image.Rect(10, 10, 30, 20), 1, 1, image.Rect(15, 10, 25, 20)},
		{"extreme ratio keeps one pixel", image.Rect(0, 0, 2, 2), 100, 1, image.Rect(0, 0, 2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := centeredCrop(tt.bounds, tt.width, tt.height); got != tt.want {
				t.Errorf("centeredCrop(%v, %d, %d) = %v, want %v", tt.bounds, tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestNewCropCommand_Validation(t *testing.T) {
	cases := []map[string]any{
		{},
		{"width": 1},
		{"width": 0, "height": 1},
		{"width": 1, "height": -2},
	}
	for _, params := range cases {
		if _, err := NewCropCommand(params); err == nil {
			t.Errorf("expected error for params %v", params)
		}
	}
}

func TestCropCommand_Execute(t *testing.T) {
	cmd, err := NewCropCommand(map[string]any{"width": 1, "height": 1})
	if err != nil {
		t.Fatalf("NewCropCommand error: %v", err)
	}

	src := newTestImage(40, 20)
	out, err := cmd.Execute(encodeTestJPEG(t, src))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	img := decodeTestPNG(t, out)
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Fatalf("expected 20x20, got %v", img.Bounds())
	}
}

func TestCropCommand_PNGWithMatchingRatioPassesThrough(t *testing.T) {
	cmd, err := NewCropCommand(map[string]any{"width": 2, "height": 1})
	if err != nil {
		t.Fatalf("NewCropCommand error: %v", err)
	}
	input := encodeTestPNG(t, newTestImage(40, 20))
	out, err := cmd.Execute(input)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if string(out) != string(input) {
		t.Errorf("expected input bytes to be returned unchanged")
	}
}

func TestCropCommand_InvalidImage(t *testing.T) {
	cmd, _ := NewCropCommand(map[string]any{"width": 1, "height": 1})
	if _, err := cmd.Execute([]byte("nope")); err == nil {
		t.Fatal("expected decode error")
	}
}
