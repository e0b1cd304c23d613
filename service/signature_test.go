package service

import (
	"bytes"
	"image/png"
	"testing"
)

func TestCanvasExportPNG(t *testing.T) {
	canvas := NewCanvas(CanvasWidth, CanvasHeight)
	canvas.AddStroke(Stroke{{X: 10, Y: 20}, {X: 100, Y: 60}, {X: 200, Y: 30}})

	data, err := canvas.ExportPNG()
	if err != nil {
		t.Fatalf("ExportPNG failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Export is not decodable PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != CanvasWidth || bounds.Dy() != CanvasHeight {
		t.Errorf("Expected %dx%d image, got %dx%d", CanvasWidth, CanvasHeight, bounds.Dx(), bounds.Dy())
	}

	// Ink must actually land on the surface
	inked := false
	for y := bounds.Min.Y; y < bounds.Max.Y && !inked; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0xffff || g < 0xffff || b < 0xffff {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Error("Expected non-white pixels along the stroke")
	}
}

func TestCanvasClear(t *testing.T) {
	canvas := NewCanvas(100, 50)
	canvas.AddStroke(Stroke{{X: 5, Y: 5}, {X: 20, Y: 20}})
	if canvas.Empty() {
		t.Fatal("Expected canvas to have strokes")
	}

	canvas.Clear()
	if !canvas.Empty() {
		t.Error("Expected canvas to be empty after clear")
	}

	// A cleared canvas still exports a blank surface
	data, err := canvas.ExportPNG()
	if err != nil {
		t.Fatalf("ExportPNG after clear failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Export is not decodable PNG: %v", err)
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || b != 0xffff {
				t.Fatal("Expected all-white surface after clear")
			}
		}
	}
}

func TestCanvasIgnoresEmptyStroke(t *testing.T) {
	canvas := NewCanvas(100, 50)
	canvas.AddStroke(Stroke{})
	if !canvas.Empty() {
		t.Error("Empty stroke should be ignored")
	}
}

func TestCanvasSinglePointDot(t *testing.T) {
	canvas := NewCanvas(50, 50)
	canvas.AddStroke(Stroke{{X: 25, Y: 25}})

	data, err := canvas.ExportPNG()
	if err != nil {
		t.Fatalf("ExportPNG failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Export is not decodable PNG: %v", err)
	}
	r, g, b, _ := img.At(25, 25).RGBA()
	if r == 0xffff && g == 0xffff && b == 0xffff {
		t.Error("Expected a dot at the tap position")
	}
}

func TestCanvasClipsOutOfBounds(t *testing.T) {
	canvas := NewCanvas(40, 40)
	canvas.AddStroke(Stroke{{X: -50, Y: -50}, {X: 100, Y: 100}})

	// Must not panic; out-of-range pixels are clipped
	if _, err := canvas.ExportPNG(); err != nil {
		t.Fatalf("ExportPNG failed: %v", err)
	}
}

func TestRasterizeStrokes(t *testing.T) {
	data, err := RasterizeStrokes(nil)
	if err != nil {
		t.Fatalf("RasterizeStrokes failed: %v", err)
	}
	if data != nil {
		t.Error("Expected nil output for no strokes")
	}

	data, err = RasterizeStrokes([]Stroke{{{X: 10, Y: 10}, {X: 30, Y: 30}}})
	if err != nil {
		t.Fatalf("RasterizeStrokes failed: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("Expected decodable PNG, got %v", err)
	}
}
