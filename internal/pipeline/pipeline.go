package pipeline

// Options is the configuration surface of a pipeline run. Callers are
// responsible for validating values before the run (in particular the
// confidence threshold's [0.1, 1.0] range); the pipeline itself assumes
// pre-validated parameters.
type Options struct {
	// ConfidenceThreshold is the minimum OCR confidence kept by the
	// normalizer.
	ConfidenceThreshold float64

	// ExpandX and ExpandY are box-expansion margins in pixels.
	ExpandX float64
	ExpandY float64

	// ImageWidth and ImageHeight bound the expanded boxes.
	ImageWidth  float64
	ImageHeight float64

	// MergeIoUThreshold is the box-overlap level above which two
	// detections merge regardless of their texts.
	MergeIoUThreshold float64

	// SimilarityThreshold is the text-similarity level above which a
	// detection is discarded as a duplicate.
	SimilarityThreshold float64

	// Trace retains the intermediate stage outputs on the result for
	// diagnostics and debug rendering. Off by default.
	Trace bool
}

// DefaultOptions returns the thresholds the system runs with unless the
// caller overrides them.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.3,
		ExpandX:             30,
		ExpandY:             25,
		MergeIoUThreshold:   0.2,
		SimilarityThreshold: 0.7,
	}
}

// Trace holds the intermediate output of every stage of a run. The
// slices are the stages' own output lists; treat them as read-only.
type Trace struct {
	Normalized   []*Detection
	Merged       []*Detection
	Deduplicated []*Detection
}

// Result is the outcome of one pipeline run.
type Result struct {
	// UseCases are the accepted labels, in the order the duplicate
	// eliminator emitted their detections.
	UseCases []UseCase

	// RawCount is the number of raw detections the run started from.
	RawCount int

	// NormalizedCount, MergedCount and DedupedCount are the list sizes
	// after each stage, for diagnostics. They shrink monotonically:
	// RawCount >= NormalizedCount >= MergedCount >= DedupedCount >=
	// len(UseCases).
	NormalizedCount int
	MergedCount     int
	DedupedCount    int

	// Trace is non-nil only when Options.Trace was set.
	Trace *Trace
}

// Texts returns just the use-case label strings, in result order.
func (r *Result) Texts() []string {
	out := make([]string, len(r.UseCases))
	for i, u := range r.UseCases {
		out[i] = u.Text
	}
	return out
}

// Run executes the full consolidation pipeline over raw OCR output:
// normalize, merge fragments, eliminate duplicates, filter actors and
// relationship annotations. An empty input produces an empty result,
// never an error; no individual detection can fail the run. Re-running
// with identical input and options yields an identical result — every
// stage is a deterministic pure function of its input.
func Run(raw []RawDetection, blacklist *Blacklist, opts Options) *Result {
	normalized := Normalize(raw, NormalizeOptions{
		ConfidenceThreshold: opts.ConfidenceThreshold,
		ExpandX:             opts.ExpandX,
		ExpandY:             opts.ExpandY,
		ImageWidth:          opts.ImageWidth,
		ImageHeight:         opts.ImageHeight,
	})
	merged := Merge(normalized, opts.MergeIoUThreshold)
	deduped := Deduplicate(merged, opts.SimilarityThreshold)
	useCases := Filter(deduped, blacklist)

	res := &Result{
		UseCases:        useCases,
		RawCount:        len(raw),
		NormalizedCount: len(normalized),
		MergedCount:     len(merged),
		DedupedCount:    len(deduped),
	}
	if opts.Trace {
		res.Trace = &Trace{
			Normalized:   normalized,
			Merged:       merged,
			Deduplicated: deduped,
		}
	}
	return res
}
