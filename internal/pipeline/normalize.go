package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/umlkit/usecase-scan/internal/geometry"
)

// NormalizeOptions controls the normalization stage.
type NormalizeOptions struct {
	// ConfidenceThreshold drops detections below this confidence.
	ConfidenceThreshold float64

	// ExpandX and ExpandY are the margins added to each side of every
	// surviving box, in pixels.
	ExpandX float64
	ExpandY float64

	// ImageWidth and ImageHeight clamp the expanded boxes.
	ImageWidth  float64
	ImageHeight float64
}

// Normalize cleans the raw OCR output: detections below the confidence
// threshold are dropped, trimmed texts shorter than two characters are
// dropped as noise (two, not three, so short numeric labels like "44"
// survive), and every survivor gets its box expanded to capture text the
// engine clipped. The pre-expansion box is retained on the record.
func Normalize(raw []RawDetection, opts NormalizeOptions) []*Detection {
	out := make([]*Detection, 0, len(raw))

	for _, r := range raw {
		if r.Confidence < opts.ConfidenceThreshold {
			continue
		}

		text := strings.TrimSpace(r.Text)
		if utf8.RuneCountInString(text) < 2 {
			continue
		}

		d := &Detection{
			Box:         geometry.Expand(r.Box, opts.ExpandX, opts.ExpandY, opts.ImageWidth, opts.ImageHeight),
			OriginalBox: r.Box,
			Text:        text,
			Confidence:  r.Confidence,
			MergedCount: 1,
		}
		d.refreshEnvelope()
		out = append(out, d)
	}

	return out
}
