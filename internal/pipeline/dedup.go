package pipeline

import (
	"sort"
	"strings"

	"github.com/umlkit/usecase-scan/internal/geometry"
)

// Boxes overlapping beyond this IoU are the same physical label even
// when OCR read the text differently.
const dedupIoUThreshold = 0.5

// Deduplicate removes detections that are near-duplicates of an already
// accepted one, keeping the higher-confidence representative.
//
// Detections are visited in confidence-descending order (stable, so ties
// keep their relative order) and each candidate is compared against
// every detection accepted so far: it is discarded when any accepted
// detection has text similarity above similarityThreshold or box IoU
// above 0.5. The returned list keeps the acceptance order, which is
// confidence-descending rather than spatial. Callers running the full
// pipeline use 0.7 for similarityThreshold; 0.8 is the conventional
// default when cleaning a list outside the orchestrated run.
func Deduplicate(dets []*Detection, similarityThreshold float64) []*Detection {
	if len(dets) == 0 {
		return []*Detection{}
	}

	sorted := make([]*Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	accepted := make([]*Detection, 0, len(sorted))
	for _, cand := range sorted {
		duplicate := false
		for _, a := range accepted {
			if textSimilarity(cand.Text, a.Text) > similarityThreshold ||
				geometry.IoU(cand.Box, a.Box) > dedupIoUThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			accepted = append(accepted, cand)
		}
	}

	return accepted
}

// textSimilarity scores how alike two texts are in [0,1]: 1.0 when one
// is a substring of the other, otherwise the Jaccard index of their
// whitespace-tokenized word sets (0.0 when either set is empty).
func textSimilarity(t1, t2 string) float64 {
	a := strings.ToLower(strings.TrimSpace(t1))
	b := strings.ToLower(strings.TrimSpace(t2))

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 1.0
	}

	wordsA := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		wordsA[w] = true
	}
	wordsB := make(map[string]bool)
	for _, w := range strings.Fields(b) {
		wordsB[w] = true
	}

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection

	return float64(intersection) / float64(union)
}
