// Package config loads runtime configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every runtime setting of the scanner.
type Config struct {
	// ListenAddr is the HTTP listen address for serve mode.
	ListenAddr string

	// OCRLanguage is the Tesseract language code, e.g. "spa+eng".
	OCRLanguage string

	// OCRConfidence is the minimum OCR confidence kept by the pipeline.
	// Valid range is [0.1, 1.0].
	OCRConfidence float64

	// SimilarityThreshold drives duplicate elimination, in (0, 1].
	SimilarityThreshold float64

	// Debug enables per-stage overlay rendering.
	Debug bool

	// DebugDir is where overlays are written when Debug is set.
	DebugDir string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:  getEnv("USECASE_SCAN_ADDR", ":8080"),
		OCRLanguage: getEnv("USECASE_SCAN_OCR_LANG", "spa+eng"),
		Debug:       getBool("USECASE_SCAN_DEBUG", false),
		DebugDir:    getEnv("USECASE_SCAN_DEBUG_DIR", "debug"),
	}

	var err error
	if cfg.OCRConfidence, err = getFloat("USECASE_SCAN_OCR_CONFIDENCE", 0.3); err != nil {
		return nil, err
	}
	if cfg.SimilarityThreshold, err = getFloat("USECASE_SCAN_SIMILARITY", 0.7); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the ranges the pipeline assumes are already enforced.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.OCRLanguage == "" {
		return fmt.Errorf("OCR language must not be empty")
	}
	if c.OCRConfidence < 0.1 || c.OCRConfidence > 1.0 {
		return fmt.Errorf("OCR confidence %.2f out of range [0.1, 1.0]", c.OCRConfidence)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1.0 {
		return fmt.Errorf("similarity threshold %.2f out of range (0, 1.0]", c.SimilarityThreshold)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
