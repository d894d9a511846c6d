package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/umlkit/usecase-scan/internal/render"
	"github.com/umlkit/usecase-scan/internal/report"
	"github.com/umlkit/usecase-scan/internal/scan"
)

// ErrorResponse is the JSON error envelope for every failure.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type detectResponse struct {
	RequestID string `json:"request_id"`
	*scan.Analysis
	DebugOverlays []string `json:"debug_overlays,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "usecase-scan",
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "pdf" && format != "compact-pdf" {
		sendError(w, "invalid_parameter",
			fmt.Sprintf("unknown format %q, expected json, pdf or compact-pdf", format),
			http.StatusBadRequest)
		return
	}

	debug := r.URL.Query().Get("debug") == "true"

	confidence := 0.0
	if raw := r.URL.Query().Get("ocr_confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0.1 || v > 1.0 {
			sendError(w, "invalid_parameter",
				"ocr_confidence must be a number in [0.1, 1.0]", http.StatusBadRequest)
			return
		}
		confidence = v
	}

	imgBytes, filename, err := readUpload(r)
	if err != nil {
		sendError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	if filename != "" && !scan.AllowedImage(filename) {
		sendError(w, "unsupported_type",
			fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)),
			http.StatusBadRequest)
		return
	}

	tmpPath, err := writeTempUpload(imgBytes, filename)
	if err != nil {
		sendError(w, "internal_error", "failed to store upload", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmpPath)

	analysis, err := s.analyze(tmpPath, confidence, debug)
	if err != nil {
		log.Printf("request %s: analysis failed: %v", requestID, err)
		sendError(w, "processing_error", err.Error(), http.StatusInternalServerError)
		return
	}
	if filename != "" {
		analysis.Source = filename
	}

	if format != "json" {
		sendPDF(w, analysis, format == "compact-pdf")
		return
	}

	resp := detectResponse{RequestID: requestID, Analysis: analysis}
	if debug && analysis.Trace != nil {
		resp.DebugOverlays = s.renderOverlays(requestID, tmpPath, analysis)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// renderOverlays writes per-stage debug images; failures are logged,
// never surfaced, since overlays are diagnostics only.
func (s *Server) renderOverlays(requestID, imgPath string, analysis *scan.Analysis) []string {
	img, err := imaging.Open(imgPath)
	if err != nil {
		log.Printf("request %s: overlay source unreadable: %v", requestID, err)
		return nil
	}
	if err := os.MkdirAll(s.cfg.DebugDir, 0o755); err != nil {
		log.Printf("request %s: debug dir: %v", requestID, err)
		return nil
	}
	paths, err := render.SaveStages(img, analysis.Trace, analysis.UseCases, s.cfg.DebugDir, requestID)
	if err != nil {
		log.Printf("request %s: overlay rendering: %v", requestID, err)
	}
	return paths
}

func sendPDF(w http.ResponseWriter, analysis *scan.Analysis, compact bool) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s-report.pdf"`, analysis.Source))
	if err := report.BuildPDF(w, analysis.ReportData(time.Now()), compact); err != nil {
		log.Printf("PDF rendering failed: %v", err)
	}
}

// readUpload pulls the image bytes out of the request. Three shapes are
// accepted: a JSON body with a base64 image, a multipart form with a
// "file" field, and the raw image as the body.
func readUpload(r *http.Request) (data []byte, filename string, err error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch contentType {
	case "application/json":
		var req struct {
			Image    string `json:"image"`
			Filename string `json:"filename"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, "", fmt.Errorf("malformed JSON body: %w", err)
		}
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return nil, "", fmt.Errorf("malformed base64 image: %w", err)
		}
		return data, req.Filename, nil

	case "multipart/form-data":
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			return nil, "", err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", err
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		return data, header.Filename, err

	default:
		data, err := io.ReadAll(r.Body)
		return data, "", err
	}
}

// writeTempUpload stores the upload under a temp path that keeps the
// original extension, defaulting to .png when none is known.
func writeTempUpload(data []byte, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".png"
	}
	tmpFile, err := os.CreateTemp("", "usecase-upload-*"+ext)
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, tmpFile.Close()
}

func sendError(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message})
}
