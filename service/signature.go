package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

// Signature canvas dimensions in pixels. Matches the aspect ratio of the
// signature boxes in the template table.
const (
	CanvasWidth  = 360
	CanvasHeight = 140
)

// Point is one sampled pointer position on the drawing surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one press-move-release gesture. Mouse and touch are identical
// here; the transport just posts point lists.
type Stroke []Point

// Canvas accumulates free-hand strokes and rasterizes them into a single
// flat PNG. There is no undo beyond a full clear and no stroke-level
// editing.
type Canvas struct {
	width   int
	height  int
	strokes []Stroke
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{width: width, height: height}
}

func (c *Canvas) AddStroke(s Stroke) {
	if len(s) == 0 {
		return
	}
	c.strokes = append(c.strokes, s)
}

// Clear resets the surface to blank.
func (c *Canvas) Clear() {
	c.strokes = nil
}

// Empty reports whether anything has been drawn.
func (c *Canvas) Empty() bool {
	return len(c.strokes) == 0
}

// ExportPNG rasterizes the current strokes as black ink on white.
func (c *Canvas) ExportPNG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	white := color.RGBA{255, 255, 255, 255}
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			img.SetRGBA(x, y, white)
		}
	}

	ink := color.RGBA{10, 10, 40, 255}
	for _, stroke := range c.strokes {
		if len(stroke) == 1 {
			drawDot(img, stroke[0], ink)
			continue
		}
		for i := 1; i < len(stroke); i++ {
			drawSegment(img, stroke[i-1], stroke[i], ink)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RasterizeStrokes renders strokes onto a default-sized canvas. Returns nil
// when there is nothing to draw.
func RasterizeStrokes(strokes []Stroke) ([]byte, error) {
	canvas := NewCanvas(CanvasWidth, CanvasHeight)
	for _, s := range strokes {
		canvas.AddStroke(s)
	}
	if canvas.Empty() {
		return nil, nil
	}
	return canvas.ExportPNG()
}

const penRadius = 1

func drawSegment(img *image.RGBA, a, b Point, ink color.RGBA) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	steps := int(math.Max(math.Abs(dx), math.Abs(dy))) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		drawDot(img, Point{X: a.X + dx*t, Y: a.Y + dy*t}, ink)
	}
}

func drawDot(img *image.RGBA, p Point, ink color.RGBA) {
	cx := int(math.Round(p.X))
	cy := int(math.Round(p.Y))
	bounds := img.Bounds()
	for y := cy - penRadius; y <= cy+penRadius; y++ {
		for x := cx - penRadius; x <= cx+penRadius; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			img.SetRGBA(x, y, ink)
		}
	}
}
