// Package ocr extracts text lines from diagram images using Tesseract.
//
// The Engine wraps gosseract with the preprocessing and the iterator
// level the rest of the system expects: images are optionally binarized
// before recognition, and results come back at text-line granularity
// with pixel bounding boxes and confidence scores scaled to [0, 1].
package ocr
