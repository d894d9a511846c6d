// Package report renders analysis results as JSON documents and PDF
// reports.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/umlkit/usecase-scan/internal/actors"
	"github.com/umlkit/usecase-scan/internal/pipeline"
)

// Data is everything a report needs from one analysis.
type Data struct {
	// Source identifies the analyzed image, usually its file name.
	Source string `json:"source"`

	// GeneratedAt stamps the analysis time.
	GeneratedAt time.Time `json:"generated_at"`

	// Actors are the detected, named actors after FilterActors.
	Actors []actors.Actor `json:"actors"`

	// UseCases are the pipeline's accepted labels.
	UseCases []pipeline.UseCase `json:"use_cases"`

	// Blacklist holds the actor names the pipeline filtered with.
	Blacklist []string `json:"actor_blacklist"`

	// Stage counts, for the statistics section.
	RawCount        int `json:"raw_count"`
	NormalizedCount int `json:"normalized_count"`
	MergedCount     int `json:"merged_count"`
	DedupedCount    int `json:"deduped_count"`
}

// ActorStats summarizes what FilterActors kept and dropped.
type ActorStats struct {
	Total   int `json:"total"`
	Named   int `json:"named"`
	Dropped int `json:"dropped"`
}

// FilterActors drops actors that never received a name label and
// renumbers the survivors from 1, preserving their left-to-right order.
func FilterActors(in []actors.Actor) ([]actors.Actor, ActorStats) {
	out := make([]actors.Actor, 0, len(in))
	for _, a := range in {
		if a.Name == "" {
			continue
		}
		a.ID = len(out) + 1
		out = append(out, a)
	}
	return out, ActorStats{
		Total:   len(in),
		Named:   len(out),
		Dropped: len(in) - len(out),
	}
}

// jsonDocument is the wire shape of the JSON report.
type jsonDocument struct {
	Source         string             `json:"source"`
	GeneratedAt    time.Time          `json:"generated_at"`
	UseCases       []pipeline.UseCase `json:"use_cases"`
	TotalCount     int                `json:"total_count"`
	Actors         []actors.Actor     `json:"actors"`
	ActorBlacklist []string           `json:"actor_blacklist"`
	Stats          jsonStats          `json:"stats"`
}

type jsonStats struct {
	RawCount        int `json:"raw_count"`
	NormalizedCount int `json:"normalized_count"`
	MergedCount     int `json:"merged_count"`
	DedupedCount    int `json:"deduped_count"`
}

// WriteJSON writes the analysis as an indented JSON document.
func WriteJSON(w io.Writer, d Data) error {
	doc := jsonDocument{
		Source:         d.Source,
		GeneratedAt:    d.GeneratedAt,
		UseCases:       d.UseCases,
		TotalCount:     len(d.UseCases),
		Actors:         d.Actors,
		ActorBlacklist: d.Blacklist,
		Stats: jsonStats{
			RawCount:        d.RawCount,
			NormalizedCount: d.NormalizedCount,
			MergedCount:     d.MergedCount,
			DedupedCount:    d.DedupedCount,
		},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// BuildPDF writes the analysis as a PDF report. The full report carries
// statistics and the actor table; the compact variant lists only the
// numbered use cases.
func BuildPDF(w io.Writer, d Data, compact bool) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Use-Case Analysis Report"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Source: %s", d.Source)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, d.GeneratedAt.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if !compact {
		writeStats(pdf, d)
		writeActorTable(pdf, tr, d.Actors)
	}
	writeUseCaseTable(pdf, tr, d.UseCases, compact)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

func writeStats(pdf *fpdf.Fpdf, d Data) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Statistics", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	rows := []struct {
		label string
		value int
	}{
		{"Raw detections", d.RawCount},
		{"After normalization", d.NormalizedCount},
		{"After merging", d.MergedCount},
		{"After deduplication", d.DedupedCount},
		{"Use cases", len(d.UseCases)},
		{"Actors", len(d.Actors)},
	}
	for _, r := range rows {
		pdf.CellFormat(60, 6, r.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("%d", r.value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeActorTable(pdf *fpdf.Fpdf, tr func(string) string, list []actors.Actor) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Actors", "", 1, "L", false, 0, "")

	if len(list) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, "No named actors detected.", "", 1, "L", false, 0, "")
		pdf.Ln(4)
		return
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(15, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(0, 7, "Name", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, a := range list {
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", a.ID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(0, 7, tr(a.Name), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeUseCaseTable(pdf *fpdf.Fpdf, tr func(string) string, useCases []pipeline.UseCase, compact bool) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Use Cases", "", 1, "L", false, 0, "")

	if len(useCases) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, "No use cases detected.", "", 1, "L", false, 0, "")
		return
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(15, 7, "#", "1", 0, "C", true, 0, "")
	if compact {
		pdf.CellFormat(0, 7, "Use case", "1", 1, "L", true, 0, "")
	} else {
		pdf.CellFormat(140, 7, "Use case", "1", 0, "L", true, 0, "")
		pdf.CellFormat(0, 7, "Confidence", "1", 1, "C", true, 0, "")
	}

	pdf.SetFont("Helvetica", "", 10)
	for i, u := range useCases {
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		if compact {
			pdf.CellFormat(0, 7, tr(u.Text), "1", 1, "L", false, 0, "")
		} else {
			pdf.CellFormat(140, 7, tr(u.Text), "1", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, fmt.Sprintf("%.2f", u.Confidence), "1", 1, "C", false, 0, "")
		}
	}
}
