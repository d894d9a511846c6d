package pipeline

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/umlkit/usecase-scan/internal/geometry"
)

// Spatial limits for same-label fragments: fragments on the same line
// sit within this vertical center distance and horizontal gap.
const (
	mergeMaxVerticalDistance = 15.0
	mergeMaxHorizontalGap    = 100.0
)

// Merge clusters detections that are fragments of the same logical label
// (OCR often splits a use-case number and its description into separate
// boxes) and fuses each cluster into a single detection.
//
// Detections are scanned once in reading order (top-to-bottom, then
// left-to-right). Each unclaimed detection seeds a cluster, and every
// unclaimed later detection is tested against the SEED only: substantial
// box overlap (IoU above iouThreshold), or same-line proximity combined
// with the text-relatedness test. Clusters are seed+members groups, not
// transitive connected components — a chain A-B-C where only adjacent
// pairs are related will not pull C in through B. Report output depends
// on this seed-centric behavior; do not replace it with union-find.
func Merge(dets []*Detection, iouThreshold float64) []*Detection {
	if len(dets) == 0 {
		return []*Detection{}
	}

	sorted := make([]*Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].yMin != sorted[j].yMin {
			return sorted[i].yMin < sorted[j].yMin
		}
		return sorted[i].xMin < sorted[j].xMin
	})

	claimed := make([]bool, len(sorted))
	merged := make([]*Detection, 0, len(sorted))

	for i, seed := range sorted {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		group := []*Detection{seed}

		for j := i + 1; j < len(sorted); j++ {
			if claimed[j] {
				continue
			}
			cand := sorted[j]

			ok := false
			if geometry.IoU(seed.Box, cand.Box) > iouThreshold {
				ok = true
			} else {
				verticalDistance := math.Abs(seed.centerY - cand.centerY)
				horizontalGap := math.Max(0, cand.xMin-seed.xMax)
				if verticalDistance < mergeMaxVerticalDistance &&
					horizontalGap < mergeMaxHorizontalGap &&
					shouldMergeTexts(seed.Text, cand.Text) {
					ok = true
				}
			}

			if ok {
				group = append(group, cand)
				claimed[j] = true
			}
		}

		if len(group) == 1 {
			merged = append(merged, seed)
			continue
		}
		merged = append(merged, fuse(group))
	}

	return merged
}

// fuse combines a cluster of two or more detections into one record:
// texts joined left-to-right, mean confidence, union envelope box.
func fuse(group []*Detection) *Detection {
	members := make([]*Detection, len(group))
	copy(members, group)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].xMin < members[j].xMin
	})

	texts := make([]string, len(members))
	xMin, yMin := members[0].xMin, members[0].yMin
	xMax, yMax := members[0].xMax, members[0].yMax
	confidence := 0.0

	for i, m := range members {
		texts[i] = m.Text
		xMin = math.Min(xMin, m.xMin)
		yMin = math.Min(yMin, m.yMin)
		xMax = math.Max(xMax, m.xMax)
		yMax = math.Max(yMax, m.yMax)
		confidence += m.Confidence
	}

	box := geometry.Rect(xMin, yMin, xMax, yMax)
	d := &Detection{
		Box:         box,
		OriginalBox: box, // pre-expansion boxes are not meaningful for a fused record
		Text:        strings.Join(texts, " "),
		Confidence:  confidence / float64(len(members)),
		MergedCount: len(members),
	}
	d.refreshEnvelope()
	return d
}

// shouldMergeTexts reports whether two texts plausibly belong to the
// same label. Inputs are compared lowercased and trimmed.
func shouldMergeTexts(t1, t2 string) bool {
	a := strings.ToLower(strings.TrimSpace(t1))
	b := strings.ToLower(strings.TrimSpace(t2))

	// One contained in the other.
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	// A numeric label next to a description ("44" + "Eliminar tipo de
	// fuente"), or two adjacent item numbers ("45" + "46").
	aNum, bNum := isDigits(a), isDigits(b)
	if aNum != bNum {
		return true
	}
	if aNum && bNum {
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		if errA == nil && errB == nil && abs(na-nb) <= 2 {
			return true
		}
	}

	// A shared significant word (longer than 3 characters).
	words := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		words[w] = true
	}
	for _, w := range strings.Fields(b) {
		if words[w] && utf8.RuneCountInString(w) > 3 {
			return true
		}
	}

	return false
}

// isDigits reports whether s is non-empty and consists only of digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
