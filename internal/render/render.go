// Package render draws pipeline diagnostics onto copies of the source
// image: one overlay per stage, with detection boxes outlined and
// labeled. Overlays exist purely for debugging; nothing in the analysis
// path depends on them.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/umlkit/usecase-scan/internal/geometry"
	"github.com/umlkit/usecase-scan/internal/pipeline"
)

var labelBackground = color.RGBA{0, 0, 0, 180}

// boxColor picks the outline color for a detection. The hue rotates
// with the merge count so fused clusters stand out from untouched
// detections.
func boxColor(mergedCount int) color.RGBA {
	hue := float64((mergedCount*70)%360)
	r, g, b := colorful.Hsv(hue, 0.85, 0.9).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Overlay copies the image and outlines every detection, labeled with
// its text.
func Overlay(img image.Image, dets []*pipeline.Detection) *image.RGBA {
	out := cloneRGBA(img)
	for _, d := range dets {
		c := boxColor(d.MergedCount)
		drawQuad(out, d.Box, c)
		xMin, yMin, _, _ := d.Box.Envelope()
		drawLabel(out, int(xMin), int(yMin)-4, d.Text, c)
	}
	return out
}

// OverlayUseCases copies the image and outlines the final accepted use
// cases in a single color.
func OverlayUseCases(img image.Image, useCases []pipeline.UseCase) *image.RGBA {
	out := cloneRGBA(img)
	c := boxColor(1)
	for _, u := range useCases {
		drawQuad(out, u.Box, c)
		xMin, yMin, _, _ := u.Box.Envelope()
		drawLabel(out, int(xMin), int(yMin)-4, u.Text, c)
	}
	return out
}

// SaveStages writes one overlay PNG per traced stage plus the final use
// cases into dir, named <stem>-<stage>.png. Returns the written paths.
// The trace may be nil, in which case only the final overlay is saved.
func SaveStages(img image.Image, trace *pipeline.Trace, useCases []pipeline.UseCase, dir, stem string) ([]string, error) {
	type stage struct {
		name string
		draw func() *image.RGBA
	}
	stages := make([]stage, 0, 4)
	if trace != nil {
		stages = append(stages,
			stage{"normalized", func() *image.RGBA { return Overlay(img, trace.Normalized) }},
			stage{"merged", func() *image.RGBA { return Overlay(img, trace.Merged) }},
			stage{"deduped", func() *image.RGBA { return Overlay(img, trace.Deduplicated) }},
		)
	}
	stages = append(stages, stage{"final", func() *image.RGBA { return OverlayUseCases(img, useCases) }})

	paths := make([]string, 0, len(stages))
	for _, s := range stages {
		path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", stem, s.name))
		if err := imaging.Save(s.draw(), path); err != nil {
			return paths, fmt.Errorf("failed to save %s overlay: %w", s.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func cloneRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}

// drawQuad outlines the quad edge by edge.
func drawQuad(img *image.RGBA, q geometry.Quad, c color.Color) {
	for i := 0; i < 4; i++ {
		p1 := q[i]
		p2 := q[(i+1)%4]
		drawLine(img, int(p1.X), int(p1.Y), int(p2.X), int(p2.Y), c)
	}
}

// drawLine draws a straight segment with Bresenham's algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	bounds := img.Bounds()
	for {
		if x1 >= bounds.Min.X && x1 < bounds.Max.X && y1 >= bounds.Min.Y && y1 < bounds.Max.Y {
			img.Set(x1, y1, c)
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

// drawLabel renders text on a dark backing strip so it stays readable
// over diagram content.
func drawLabel(img *image.RGBA, x, y int, text string, fg color.Color) {
	face := basicfont.Face7x13
	width := len(text) * 7
	bounds := img.Bounds()

	for dy := -face.Ascent; dy < face.Descent; dy++ {
		for dx := -1; dx <= width; dx++ {
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				img.Set(px, py, labelBackground)
			}
		}
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
