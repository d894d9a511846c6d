package ocr

import (
	"fmt"
	"image"
	"os"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/umlkit/usecase-scan/internal/geometry"
	"github.com/umlkit/usecase-scan/internal/pipeline"
)

// Engine configures how images are recognized.
type Engine struct {
	// Language is the Tesseract language code, e.g. "eng" or "spa+eng".
	// The corresponding training data must be installed on the system.
	Language string

	// Binarize converts the image to grayscale and applies a fixed
	// threshold before recognition. Diagram exports are mostly black on
	// white already; binarizing strips antialiasing halos and pale fills
	// that otherwise lower line confidence.
	Binarize bool

	// BinarizeThreshold is the grayscale cutoff when Binarize is set.
	BinarizeThreshold uint8
}

// New returns an engine with the defaults used throughout the system:
// binarization on at the midpoint threshold.
func New(language string) *Engine {
	return &Engine{
		Language:          language,
		Binarize:          true,
		BinarizeThreshold: 128,
	}
}

// Result is the raw OCR output for one image.
type Result struct {
	// Detections are the recognized text lines with their bounding
	// quads and confidence in [0, 1]. Unordered; downstream stages sort.
	Detections []pipeline.RawDetection `json:"detections"`

	// ImageWidth and ImageHeight are the source image dimensions in
	// pixels, needed to clamp box expansion later.
	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`
}

// Recognize runs OCR over the image at path and returns every text line
// Tesseract found. Lines with empty text are dropped; everything else,
// including low-confidence noise, is passed through for the pipeline to
// judge.
func (e *Engine) Recognize(path string) (*Result, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	bounds := img.Bounds()

	ocrPath := path
	if e.Binarize {
		tmpPath, err := saveTemp(e.preprocess(img))
		if err != nil {
			return nil, fmt.Errorf("failed to write preprocessed image: %w", err)
		}
		defer os.Remove(tmpPath)
		ocrPath = tmpPath
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(ocrPath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	return &Result{
		Detections:  toRawDetections(boxes),
		ImageWidth:  bounds.Dx(),
		ImageHeight: bounds.Dy(),
	}, nil
}

// preprocess binarizes the image for recognition.
func (e *Engine) preprocess(img image.Image) image.Image {
	return segment.Threshold(effect.Grayscale(img), e.BinarizeThreshold)
}

// toRawDetections converts Tesseract line boxes into the pipeline's
// input records. Confidence arrives as a percentage and is scaled to
// [0, 1]; empty lines are dropped.
func toRawDetections(boxes []gosseract.BoundingBox) []pipeline.RawDetection {
	out := make([]pipeline.RawDetection, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		out = append(out, pipeline.RawDetection{
			Box: geometry.Rect(
				float64(box.Box.Min.X), float64(box.Box.Min.Y),
				float64(box.Box.Max.X), float64(box.Box.Max.Y),
			),
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
		})
	}
	return out
}

// saveTemp writes an image to a temporary PNG (Tesseract needs a file
// path) and returns its location. The caller removes the file.
func saveTemp(img image.Image) (string, error) {
	tmpFile, err := os.CreateTemp("", "usecase-ocr-*.png")
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	if err := imaging.Save(img, tmpPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// Info describes OCR availability, reported on the health endpoint.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Probe checks whether the Tesseract runtime is usable.
func Probe() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	if version == "" {
		return Info{Available: false, Error: "tesseract runtime not found"}
	}
	return Info{Available: true, Version: version}
}
