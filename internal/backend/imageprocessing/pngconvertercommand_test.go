package imageprocessing

import (
	"bytes"
	"testing"
)

const testSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" width="40px" height="20"
  viewBox="0 0 40 20"><rect x="0" y="0" width="40" height="20" stroke-width="3" fill="#ff0000"/></svg>`

const testSVGNoSize = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"><rect width="10" height="10"/></svg>`

func TestPngConverter_PassesThroughPNG(t *testing.T) {
	cmd, err := NewPngConverterCommand(nil)
	if err != nil {
		t.Fatalf("NewPngConverterCommand error: %v", err)
	}
	input := encodeTestPNG(t, newTestImage(3, 3))
	out, err := cmd.Execute(input)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Errorf("expected PNG input to be returned unchanged")
	}
}

func TestPngConverter_ConvertsJPEG(t *testing.T) {
	cmd, _ := NewPngConverterCommand(nil)
	out, err := cmd.Execute(encodeTestJPEG(t, newTestImage(12, 7)))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !bytes.HasPrefix(out, pngSignature) {
		t.Fatalf("expected PNG signature")
	}
	b := decodeTestPNG(t, out).Bounds()
	if b.Dx() != 12 || b.Dy() != 7 {
		t.Errorf("expected 12x7, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestPngConverter_RendersSVGWithExplicitSize(t *testing.T) {
	cmd, _ := NewPngConverterCommand(nil)
	out, err := cmd.Execute([]byte(testSVG))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	img := decodeTestPNG(t, out)
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Fatalf("expected 40x20, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
	r, g, b, _ := img.At(20, 10).RGBA()
	if r>>8 < 200 || g>>8 > 50 || b>>8 > 50 {
		t.Errorf("expected red fill at center, got r=%d g=%d b=%d", r>>8, g>>8, b>>8)
	}
}

func TestPngConverter_SVGFallbackSize(t *testing.T) {
	noFallback, _ := NewPngConverterCommand(nil)
	if _, err := noFallback.Execute([]byte(testSVGNoSize)); err == nil {
		t.Errorf("expected error without explicit or fallback size")
	}

	withFallback, _ := NewPngConverterCommand(map[string]any{"svgFallbackWidth": 16, "svgFallbackHeight": 8})
	out, err := withFallback.Execute([]byte(testSVGNoSize))
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	b := decodeTestPNG(t, out).Bounds()
	if b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("expected 16x8, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestPngConverter_InvalidInput(t *testing.T) {
	cmd, _ := NewPngConverterCommand(nil)
	if _, err := cmd.Execute([]byte("plain text")); err == nil {
		t.Errorf("expected decode error")
	}
	if _, err := NewPngConverterCommand(map[string]any{"svgFallbackWidth": -1}); err == nil {
		t.Errorf("expected error for negative fallback size")
	}
}

func TestParseSvgExplicitSize_IgnoresStrokeWidth(t *testing.T) {
	_, _, ok := parseSvgExplicitSize([]byte(`<svg stroke-width="3" viewBox="0 0 1 1"></svg>`))
	if ok {
		t.Errorf("expected stroke-width not to be read as width")
	}
}
