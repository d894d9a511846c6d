// Package actors locates stick-figure glyphs in use-case diagrams and
// pairs them with their name labels.
//
// Detection runs in two stages. A Hough transform over the edge image
// finds head candidates (small circles), which are then confirmed by
// probing for the torso stroke below each head. Confirmed figures are
// matched to the nearest OCR text below them, which becomes the actor
// name; the collected names feed the pipeline's blacklist.
package actors

import (
	"image"
	"math"
	"sort"
	"strings"

	"github.com/umlkit/usecase-scan/internal/geometry"
	"github.com/umlkit/usecase-scan/internal/pipeline"
)

// Actor is one detected stick figure.
type Actor struct {
	// ID numbers actors left to right, starting at 1.
	ID int `json:"id"`

	// Name is the label text matched below the figure. Empty when no
	// label was close enough.
	Name string `json:"name"`

	// Head is the detected head center in pixel coordinates.
	Head geometry.Point `json:"head"`

	// HeadRadius is the head circle radius in pixels.
	HeadRadius int `json:"head_radius"`

	// Bounds approximates the full figure extent: arms span about two
	// head radii to each side, legs reach about five below the center.
	Bounds geometry.Quad `json:"bounds"`

	// Confidence is the fraction of the head circumference confirmed by
	// edge votes, capped at 1.0.
	Confidence float64 `json:"confidence"`
}

// Options control figure detection.
type Options struct {
	// MinHeadRadius and MaxHeadRadius bound the Hough search in pixels.
	// Heads in exported diagrams are small; keep the range tight, the
	// transform cost grows linearly with it.
	MinHeadRadius int
	MaxHeadRadius int

	// EdgeThreshold is the grayscale gradient above which a pixel counts
	// as an edge.
	EdgeThreshold float64

	// VoteFraction is the fraction of the expected circumference votes a
	// head candidate needs.
	VoteFraction float64

	// LabelMaxDistance is how far below the figure, in pixels, a text
	// label may sit and still name the actor.
	LabelMaxDistance float64
}

// DefaultOptions returns the detection parameters tuned for diagram
// exports at typical screen resolutions.
func DefaultOptions() Options {
	return Options{
		MinHeadRadius:    5,
		MaxHeadRadius:    30,
		EdgeThreshold:    30,
		VoteFraction:     0.6,
		LabelMaxDistance: 90,
	}
}

// head is a circle candidate from the Hough stage.
type head struct {
	x, y, radius int
	confidence   float64
}

// Detect finds stick figures in the image. Actors come back numbered
// left to right. An image without figures yields an empty slice, never
// an error.
func Detect(img image.Image, opts Options) []Actor {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	edges := detectEdges(img, width, height, opts.EdgeThreshold)
	heads := dropOverlappingHeads(houghHeads(edges, width, height, opts))

	actors := make([]Actor, 0, len(heads))
	for _, h := range heads {
		if !hasTorso(edges, h, width, height) {
			continue
		}
		r := float64(h.radius)
		cx := float64(h.x + bounds.Min.X)
		cy := float64(h.y + bounds.Min.Y)
		actors = append(actors, Actor{
			Head:       geometry.Point{X: cx, Y: cy},
			HeadRadius: h.radius,
			Bounds:     geometry.Rect(cx-2*r, cy-r, cx+2*r, cy+5*r),
			Confidence: h.confidence,
		})
	}

	sort.Slice(actors, func(i, j int) bool {
		return actors[i].Head.X < actors[j].Head.X
	})
	for i := range actors {
		actors[i].ID = i + 1
	}
	return actors
}

// Label assigns each actor the nearest raw OCR text below its figure,
// within maxDist pixels of the figure's feet. A label names at most one
// actor. Actors without a close enough label keep an empty Name.
func Label(actors []Actor, labels []pipeline.RawDetection, maxDist float64) []Actor {
	claimed := make(map[int]bool)
	out := make([]Actor, len(actors))
	copy(out, actors)

	for i := range out {
		xMin, _, xMax, yMax := out[i].Bounds.Envelope()
		feetX := (xMin + xMax) / 2
		feetY := yMax

		best := -1
		bestDist := maxDist
		for j, l := range labels {
			text := strings.TrimSpace(l.Text)
			if text == "" || claimed[j] {
				continue
			}
			lx, ly, lx2, _ := l.Box.Envelope()
			labelX := (lx + lx2) / 2
			if ly < out[i].Head.Y {
				continue // labels sit below the figure
			}
			dist := math.Hypot(labelX-feetX, ly-feetY)
			if dist <= bestDist {
				bestDist = dist
				best = j
			}
		}
		if best >= 0 {
			claimed[best] = true
			out[i].Name = strings.TrimSpace(labels[best].Text)
		}
	}
	return out
}

// Names returns the non-empty actor names, in actor order. This is the
// blacklist input for the text pipeline.
func Names(actors []Actor) []string {
	out := make([]string, 0, len(actors))
	for _, a := range actors {
		if a.Name != "" {
			out = append(out, a.Name)
		}
	}
	return out
}

// detectEdges marks pixels whose horizontal or vertical grayscale
// gradient exceeds threshold. Border pixels are never edges.
func detectEdges(img image.Image, width, height int, threshold float64) [][]bool {
	bounds := img.Bounds()
	edges := make([][]bool, height)

	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				continue
			}
			c := grayValue(img, x+bounds.Min.X, y+bounds.Min.Y)
			cx := grayValue(img, x+1+bounds.Min.X, y+bounds.Min.Y)
			cy := grayValue(img, x+bounds.Min.X, y+1+bounds.Min.Y)

			dx := math.Abs(float64(c) - float64(cx))
			dy := math.Abs(float64(c) - float64(cy))
			if dx > threshold || dy > threshold {
				edges[y][x] = true
			}
		}
	}
	return edges
}

// houghHeads runs a Hough circle transform over the edge image for each
// radius in the configured range. Every edge pixel votes for candidate
// centers at 10 degree steps; accumulator cells that collect at least
// VoteFraction of the expected circumference and are a local maximum in
// a 5 pixel window become head candidates.
func houghHeads(edges [][]bool, width, height int, opts Options) []head {
	heads := make([]head, 0)

	for radius := opts.MinHeadRadius; radius <= opts.MaxHeadRadius; radius++ {
		accumulator := make([][]int, height)
		for y := 0; y < height; y++ {
			accumulator[y] = make([]int, width)
		}

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if !edges[y][x] {
					continue
				}
				for angle := 0; angle < 360; angle += 10 {
					rad := float64(angle) * math.Pi / 180
					cx := x - int(float64(radius)*math.Cos(rad))
					cy := y - int(float64(radius)*math.Sin(rad))
					if cx >= 0 && cx < width && cy >= 0 && cy < height {
						accumulator[cy][cx]++
					}
				}
			}
		}

		threshold := int(float64(2*radius) * opts.VoteFraction)
		for y := radius; y < height-radius; y++ {
			for x := radius; x < width-radius; x++ {
				if accumulator[y][x] < threshold {
					continue
				}
				if !isLocalMax(accumulator, x, y, width, height) {
					continue
				}
				confidence := float64(accumulator[y][x]) / float64(2*radius)
				heads = append(heads, head{
					x:          x,
					y:          y,
					radius:     radius,
					confidence: math.Min(confidence, 1.0),
				})
			}
		}
	}
	return heads
}

// isLocalMax reports whether the accumulator cell dominates its 5 pixel
// neighborhood.
func isLocalMax(accumulator [][]int, x, y, width, height int) bool {
	for dy := -5; dy <= 5; dy++ {
		for dx := -5; dx <= 5; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			ny, nx := y+dy, x+dx
			if ny >= 0 && ny < height && nx >= 0 && nx < width {
				if accumulator[ny][nx] > accumulator[y][x] {
					return false
				}
			}
		}
	}
	return true
}

// dropOverlappingHeads keeps the highest-confidence head when two
// candidates sit closer than the average of their radii.
func dropOverlappingHeads(heads []head) []head {
	if len(heads) == 0 {
		return heads
	}
	sort.Slice(heads, func(i, j int) bool {
		return heads[i].confidence > heads[j].confidence
	})

	kept := make([]head, 0, len(heads))
	for _, h := range heads {
		overlaps := false
		for _, k := range kept {
			dx := float64(h.x - k.x)
			dy := float64(h.y - k.y)
			if math.Hypot(dx, dy) < float64(h.radius+k.radius)/2 {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, h)
		}
	}
	return kept
}

// hasTorso confirms a head candidate by probing the band directly below
// it for the vertical body stroke. The band is two radii tall and five
// pixels wide; at least 60% of its rows must contain an edge pixel.
func hasTorso(edges [][]bool, h head, width, height int) bool {
	top := h.y + h.radius + 1
	bottom := top + 2*h.radius
	if bottom > height {
		bottom = height
	}
	rows := bottom - top
	if rows <= 0 {
		return false
	}

	hit := 0
	for y := top; y < bottom; y++ {
		for x := h.x - 2; x <= h.x+2; x++ {
			if x >= 0 && x < width && edges[y][x] {
				hit++
				break
			}
		}
	}
	return float64(hit) >= 0.6*float64(rows)
}

// grayValue converts a pixel to grayscale using BT.601 luminance
// weights.
func grayValue(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114)
}
