// Package scan runs a complete analysis of one diagram image: OCR, actor
// detection, blacklist construction and the text pipeline. Both the CLI
// and the HTTP server drive analyses through the Scanner.
package scan

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/umlkit/usecase-scan/internal/actors"
	"github.com/umlkit/usecase-scan/internal/ocr"
	"github.com/umlkit/usecase-scan/internal/pipeline"
	"github.com/umlkit/usecase-scan/internal/report"
)

// Recognizer extracts raw text detections from an image file. The OCR
// engine implements it; tests substitute canned results.
type Recognizer interface {
	Recognize(path string) (*ocr.Result, error)
}

// Scanner holds the collaborators and thresholds of an analysis.
type Scanner struct {
	Recognizer   Recognizer
	Pipeline     pipeline.Options
	ActorOptions actors.Options

	// ExtraBlacklist names are filtered in addition to detected actors.
	ExtraBlacklist []string
}

// New returns a scanner with default thresholds around the given
// recognizer.
func New(rec Recognizer) *Scanner {
	return &Scanner{
		Recognizer:   rec,
		Pipeline:     pipeline.DefaultOptions(),
		ActorOptions: actors.DefaultOptions(),
	}
}

// Analysis is the complete outcome for one image.
type Analysis struct {
	Source      string `json:"source"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`

	// Actors are the named figures, renumbered left to right.
	Actors     []actors.Actor    `json:"actors"`
	ActorStats report.ActorStats `json:"actor_stats"`

	// Blacklist is what the filter actually ran with: detected actor
	// names plus any extra names configured on the scanner.
	Blacklist []string `json:"actor_blacklist"`

	UseCases []pipeline.UseCase `json:"use_cases"`

	RawCount        int `json:"raw_count"`
	NormalizedCount int `json:"normalized_count"`
	MergedCount     int `json:"merged_count"`
	DedupedCount    int `json:"deduped_count"`

	// Trace carries per-stage pipeline output when tracing was enabled.
	Trace *pipeline.Trace `json:"-"`
}

// Analyze runs the full analysis over the image at path.
func (s *Scanner) Analyze(path string) (*Analysis, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	ocrResult, err := s.Recognizer.Recognize(path)
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	found := actors.Detect(img, s.ActorOptions)
	found = actors.Label(found, ocrResult.Detections, s.ActorOptions.LabelMaxDistance)
	named, stats := report.FilterActors(found)

	blacklist := append(actors.Names(named), s.ExtraBlacklist...)

	opts := s.Pipeline
	opts.ImageWidth = float64(ocrResult.ImageWidth)
	opts.ImageHeight = float64(ocrResult.ImageHeight)
	result := pipeline.Run(ocrResult.Detections, pipeline.NewBlacklist(blacklist), opts)

	return &Analysis{
		Source:          filepath.Base(path),
		ImageWidth:      ocrResult.ImageWidth,
		ImageHeight:     ocrResult.ImageHeight,
		Actors:          named,
		ActorStats:      stats,
		Blacklist:       pipeline.NewBlacklist(blacklist).Names(),
		UseCases:        result.UseCases,
		RawCount:        result.RawCount,
		NormalizedCount: result.NormalizedCount,
		MergedCount:     result.MergedCount,
		DedupedCount:    result.DedupedCount,
		Trace:           result.Trace,
	}, nil
}

// ReportData shapes the analysis for the report writers.
func (a *Analysis) ReportData(generatedAt time.Time) report.Data {
	return report.Data{
		Source:          a.Source,
		GeneratedAt:     generatedAt,
		Actors:          a.Actors,
		UseCases:        a.UseCases,
		Blacklist:       a.Blacklist,
		RawCount:        a.RawCount,
		NormalizedCount: a.NormalizedCount,
		MergedCount:     a.MergedCount,
		DedupedCount:    a.DedupedCount,
	}
}

// imageExtensions is the upload allowlist.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// AllowedImage reports whether the file name carries a supported image
// extension.
func AllowedImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}
