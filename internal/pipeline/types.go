// Package pipeline consolidates raw OCR detections from a use-case
// diagram into a clean, deduplicated list of use-case labels. The run
// is strictly sequential: normalize, merge fragments, eliminate
// duplicates, filter actor and relationship text. Each stage owns its
// output list exclusively and hands it to the next stage.
package pipeline

import (
	"github.com/umlkit/usecase-scan/internal/geometry"
)

// RawDetection is one OCR hit exactly as the recognition engine emitted
// it. Immutable; the normalizer consumes it without modifying it.
type RawDetection struct {
	// Box is the quadrilateral around the recognized text.
	Box geometry.Quad `json:"box"`

	// Text is the recognized string, possibly with surrounding whitespace.
	Text string `json:"text"`

	// Confidence is the engine's recognition confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Detection is the working record carried between pipeline stages.
// The envelope and center fields are derived from Box and cached because
// the merger and the duplicate eliminator consult them in inner loops.
type Detection struct {
	// Box is the current (expanded, possibly merged) bounding box.
	Box geometry.Quad `json:"box"`

	// OriginalBox is the pre-expansion box, kept for diagnostics.
	OriginalBox geometry.Quad `json:"original_box"`

	// Text is the trimmed recognized text. For merged records it is the
	// space-joined text of all constituents in left-to-right order.
	Text string `json:"text"`

	// Confidence is the recognition confidence; for merged records the
	// arithmetic mean of the constituents.
	Confidence float64 `json:"confidence"`

	// MergedCount is how many raw detections were fused into this one.
	MergedCount int `json:"merged_count"`

	xMin, yMin, xMax, yMax float64
	centerX, centerY       float64
}

// refreshEnvelope recomputes the cached envelope and center fields from
// Box. Must be called whenever Box changes.
func (d *Detection) refreshEnvelope() {
	d.xMin, d.yMin, d.xMax, d.yMax = d.Box.Envelope()
	d.centerX = (d.xMin + d.xMax) / 2
	d.centerY = (d.yMin + d.yMax) / 2
}

// UseCase is one entry of the final report: a use-case label that
// survived merging, deduplication and actor/relationship filtering.
type UseCase struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Box        geometry.Quad `json:"box"`
}
