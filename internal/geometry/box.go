// Package geometry provides the box arithmetic used by the detection
// pipeline: envelope extraction, margin expansion and Intersection over
// Union. All functions are pure and deterministic; the merger and the
// duplicate eliminator call them repeatedly inside comparisons and rely
// on getting identical results independent of call order.
package geometry

import "math"

// Point is a planar coordinate in image pixel space.
type Point struct {
	X float64 `json:"x"` // Horizontal position (0 = leftmost)
	Y float64 `json:"y"` // Vertical position (0 = topmost)
}

// Quad is a four-corner bounding box in the order top-left, top-right,
// bottom-right, bottom-left. OCR engines emit arbitrary quadrilaterals;
// everything produced by this package is axis-aligned.
type Quad [4]Point

// Rect builds an axis-aligned Quad from two opposite corners.
func Rect(x1, y1, x2, y2 float64) Quad {
	return Quad{
		{X: x1, Y: y1},
		{X: x2, Y: y1},
		{X: x2, Y: y2},
		{X: x1, Y: y2},
	}
}

// Envelope returns the axis-aligned envelope of the quad as
// (xMin, yMin, xMax, yMax). The envelope always contains all four
// corner points.
func (q Quad) Envelope() (xMin, yMin, xMax, yMax float64) {
	xMin, yMin = q[0].X, q[0].Y
	xMax, yMax = q[0].X, q[0].Y
	for _, p := range q[1:] {
		xMin = math.Min(xMin, p.X)
		yMin = math.Min(yMin, p.Y)
		xMax = math.Max(xMax, p.X)
		yMax = math.Max(yMax, p.Y)
	}
	return xMin, yMin, xMax, yMax
}

// Expand grows the axis-aligned envelope of q outward by marginX and
// marginY on each side, clamped to [0, imageWidth] x [0, imageHeight].
// The result is always a rectangular, axis-aligned quad regardless of
// the shape of the input polygon.
func Expand(q Quad, marginX, marginY, imageWidth, imageHeight float64) Quad {
	xMin, yMin, xMax, yMax := q.Envelope()

	xMin = math.Max(0, xMin-marginX)
	yMin = math.Max(0, yMin-marginY)
	xMax = math.Min(imageWidth, xMax+marginX)
	yMax = math.Min(imageHeight, yMax+marginY)

	return Rect(xMin, yMin, xMax, yMax)
}

// IoU computes the Intersection over Union of two boxes, treating each
// as the axis-aligned rectangle defined by its first and third corner
// (top-left and bottom-right). Returns 0.0 when the rectangles do not
// overlap or when the union area is zero (degenerate rectangle).
func IoU(a, b Quad) float64 {
	x1a, y1a := a[0].X, a[0].Y
	x2a, y2a := a[2].X, a[2].Y
	x1b, y1b := b[0].X, b[0].Y
	x2b, y2b := b[2].X, b[2].Y

	xLeft := math.Max(x1a, x1b)
	yTop := math.Max(y1a, y1b)
	xRight := math.Min(x2a, x2b)
	yBottom := math.Min(y2a, y2b)

	if xRight < xLeft || yBottom < yTop {
		return 0.0
	}

	intersection := (xRight - xLeft) * (yBottom - yTop)

	areaA := (x2a - x1a) * (y2a - y1a)
	areaB := (x2b - x1b) * (y2b - y1b)
	union := areaA + areaB - intersection

	if union <= 0 {
		return 0.0
	}
	return intersection / union
}
