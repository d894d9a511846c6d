package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/umlkit/usecase-scan/internal/config"
	"github.com/umlkit/usecase-scan/internal/ocr"
	"github.com/umlkit/usecase-scan/internal/render"
	"github.com/umlkit/usecase-scan/internal/report"
	"github.com/umlkit/usecase-scan/internal/scan"
	"github.com/umlkit/usecase-scan/internal/server"

	"github.com/disintegration/imaging"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("usecase-scan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		runServe(cfg, os.Args[2:])
		return
	}
	runAnalyze(cfg, os.Args[1:])
}

func printHelp() {
	fmt.Println("usecase-scan - extract use cases from UML diagram images")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  usecase-scan [options] <image>     Analyze one diagram image")
	fmt.Println("  usecase-scan serve [options]       Start the HTTP API")
	fmt.Println()
	fmt.Println("Analyze options:")
	fmt.Println("  -json <path>     Write the JSON report to a file (default: stdout)")
	fmt.Println("  -pdf <path>      Also write a PDF report")
	fmt.Println("  -compact         Use the compact PDF layout")
	fmt.Println("  -debug           Write per-stage overlay images")
	fmt.Println()
	fmt.Println("Serve options:")
	fmt.Println("  -addr <addr>     Listen address (overrides USECASE_SCAN_ADDR)")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  USECASE_SCAN_ADDR               HTTP listen address (default :8080)")
	fmt.Println("  USECASE_SCAN_OCR_LANG           Tesseract languages (default spa+eng)")
	fmt.Println("  USECASE_SCAN_OCR_CONFIDENCE     Minimum OCR confidence (default 0.3)")
	fmt.Println("  USECASE_SCAN_SIMILARITY         Duplicate similarity threshold (default 0.7)")
	fmt.Println("  USECASE_SCAN_DEBUG              Enable overlay rendering (true/false)")
	fmt.Println("  USECASE_SCAN_DEBUG_DIR          Overlay output directory (default debug)")
}

// newScanner wires the real OCR engine into a scanner configured from
// the environment.
func newScanner(cfg *config.Config) *scan.Scanner {
	s := scan.New(ocr.New(cfg.OCRLanguage))
	s.Pipeline.ConfidenceThreshold = cfg.OCRConfidence
	s.Pipeline.SimilarityThreshold = cfg.SimilarityThreshold
	return s
}

func runServe(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address")
	fs.Parse(args)
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	base := newScanner(cfg)
	analyze := func(path string, confidence float64, trace bool) (*scan.Analysis, error) {
		s := *base
		if confidence > 0 {
			s.Pipeline.ConfidenceThreshold = confidence
		}
		s.Pipeline.Trace = trace
		return s.Analyze(path)
	}

	if info := ocr.Probe(); !info.Available {
		log.Printf("Warning: OCR runtime unavailable: %s", info.Error)
	}

	if err := server.New(analyze, cfg).Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runAnalyze(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	jsonPath := fs.String("json", "", "write JSON report to file")
	pdfPath := fs.String("pdf", "", "write PDF report to file")
	compact := fs.Bool("compact", false, "compact PDF layout")
	debug := fs.Bool("debug", cfg.Debug, "write per-stage overlay images")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: usecase-scan [options] <image>")
		os.Exit(2)
	}
	imagePath := fs.Arg(0)
	if !scan.AllowedImage(imagePath) {
		log.Fatalf("Unsupported image type: %s", imagePath)
	}

	scanner := newScanner(cfg)
	scanner.Pipeline.Trace = *debug

	start := time.Now()
	analysis, err := scanner.Analyze(imagePath)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	log.Printf("Analyzed %s in %v: %d use cases, %d actors",
		analysis.Source, time.Since(start).Round(time.Millisecond),
		len(analysis.UseCases), len(analysis.Actors))

	data := analysis.ReportData(time.Now())

	out := os.Stdout
	if *jsonPath != "" {
		f, err := os.Create(*jsonPath)
		if err != nil {
			log.Fatalf("Failed to create JSON file: %v", err)
		}
		defer f.Close()
		out = f
	}
	if err := report.WriteJSON(out, data); err != nil {
		log.Fatalf("Failed to write JSON report: %v", err)
	}

	if *pdfPath != "" {
		f, err := os.Create(*pdfPath)
		if err != nil {
			log.Fatalf("Failed to create PDF file: %v", err)
		}
		defer f.Close()
		if err := report.BuildPDF(f, data, *compact); err != nil {
			log.Fatalf("Failed to write PDF report: %v", err)
		}
		log.Printf("PDF report written to %s", *pdfPath)
	}

	if *debug {
		writeOverlays(cfg, imagePath, analysis)
	}
}

func writeOverlays(cfg *config.Config, imagePath string, analysis *scan.Analysis) {
	img, err := imaging.Open(imagePath)
	if err != nil {
		log.Printf("Overlay source unreadable: %v", err)
		return
	}
	if err := os.MkdirAll(cfg.DebugDir, 0o755); err != nil {
		log.Printf("Failed to create debug dir: %v", err)
		return
	}
	stem := strings.TrimSuffix(analysis.Source, filepath.Ext(analysis.Source))
	paths, err := render.SaveStages(img, analysis.Trace, analysis.UseCases, cfg.DebugDir, stem)
	if err != nil {
		log.Printf("Overlay rendering: %v", err)
	}
	for _, p := range paths {
		log.Printf("Overlay written: %s", p)
	}
}
