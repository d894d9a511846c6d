package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText renders text with basicfont at (x, y).
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createLabelImage writes a white canvas with one rendered label to a
// temp PNG, scaled up so Tesseract has a chance with the tiny bitmap
// font.
func createLabelImage(t *testing.T, text string, scale int) string {
	t.Helper()

	width := (len(text)*7 + 40)
	height := 40
	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}

	tmpFile, err := os.CreateTemp("", "ocr-label-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	if err := imaging.Save(img, tmpFile.Name()); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to save image: %v", err)
	}
	return tmpFile.Name()
}

func skipWithoutTesseract(t *testing.T, err error) {
	t.Helper()
	if strings.Contains(err.Error(), "tesseract") ||
		strings.Contains(err.Error(), "library") {
		t.Skip("Tesseract not available")
	}
}

func TestRecognize(t *testing.T) {
	imgPath := createLabelImage(t, "CREAR PEDIDO", 3)
	defer os.Remove(imgPath)

	result, err := New("eng").Recognize(imgPath)
	if err != nil {
		skipWithoutTesseract(t, err)
		t.Fatalf("Recognize failed: %v", err)
	}

	if result.ImageWidth == 0 || result.ImageHeight == 0 {
		t.Errorf("image dimensions missing: %dx%d", result.ImageWidth, result.ImageHeight)
	}
	for _, d := range result.Detections {
		if d.Confidence < 0 || d.Confidence > 1 {
			t.Errorf("confidence out of range for %q: %v", d.Text, d.Confidence)
		}
		if d.Text == "" {
			t.Errorf("empty line leaked into detections")
		}
	}
	t.Logf("recognized %d lines", len(result.Detections))
}

func TestRecognize_WithoutBinarize(t *testing.T) {
	imgPath := createLabelImage(t, "EXPORTAR", 3)
	defer os.Remove(imgPath)

	engine := New("eng")
	engine.Binarize = false

	result, err := engine.Recognize(imgPath)
	if err != nil {
		skipWithoutTesseract(t, err)
		t.Fatalf("Recognize failed: %v", err)
	}
	if result == nil {
		t.Fatal("Recognize returned nil result")
	}
}

func TestRecognize_NonExistentFile(t *testing.T) {
	_, err := New("eng").Recognize("/nonexistent/path/image.png")
	if err == nil {
		t.Error("Recognize should fail for a non-existent file")
	}
}

func TestToRawDetections(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(10, 20, 110, 50), Word: "Crear pedido", Confidence: 91.5},
		{Box: image.Rect(10, 70, 40, 100), Word: "", Confidence: 80.0}, // dropped
		{Box: image.Rect(200, 20, 230, 50), Word: "44", Confidence: 60.0},
	}

	dets := toRawDetections(boxes)

	if len(dets) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(dets))
	}
	if dets[0].Text != "Crear pedido" || dets[0].Confidence != 0.915 {
		t.Errorf("first detection wrong: %+v", dets[0])
	}
	xMin, yMin, xMax, yMax := dets[0].Box.Envelope()
	if xMin != 10 || yMin != 20 || xMax != 110 || yMax != 50 {
		t.Errorf("box envelope: got (%v,%v,%v,%v)", xMin, yMin, xMax, yMax)
	}
	if dets[1].Confidence != 0.6 {
		t.Errorf("confidence not scaled: %v", dets[1].Confidence)
	}
}

func TestToRawDetections_Empty(t *testing.T) {
	if dets := toRawDetections(nil); len(dets) != 0 {
		t.Errorf("expected no detections, got %d", len(dets))
	}
}

func TestPreprocess_Binarizes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 5 {
				img.Set(x, y, color.RGBA{30, 30, 30, 255})
			} else {
				img.Set(x, y, color.RGBA{220, 220, 220, 255})
			}
		}
	}

	out := New("eng").preprocess(img)

	dark := color.GrayModel.Convert(out.At(2, 5)).(color.Gray).Y
	light := color.GrayModel.Convert(out.At(8, 5)).(color.Gray).Y
	if dark != 0 {
		t.Errorf("dark pixel not pushed to black: %d", dark)
	}
	if light != 255 {
		t.Errorf("light pixel not pushed to white: %d", light)
	}
}
