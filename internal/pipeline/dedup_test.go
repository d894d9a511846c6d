package pipeline

import (
	"math"
	"testing"
)

func TestDeduplicate_KeepsHigherConfidence(t *testing.T) {
	dets := []*Detection{
		det("Crear pedido nuevo", 0.7, 10, 10, 180, 40),
		det("Crear pedido", 0.9, 400, 300, 520, 330),
	}

	out := Deduplicate(dets, 0.7)

	if len(out) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(out))
	}
	if out[0].Text != "Crear pedido" {
		t.Errorf("kept wrong representative: %q", out[0].Text)
	}
}

func TestDeduplicate_OutputIsConfidenceDescending(t *testing.T) {
	dets := []*Detection{
		det("Exportar datos", 0.6, 10, 10, 150, 40),
		det("Generar reporte", 0.9, 10, 100, 160, 130),
		det("Consultar historial", 0.75, 10, 200, 200, 230),
	}

	out := Deduplicate(dets, 0.7)

	if len(out) != 3 {
		t.Fatalf("expected 3 detections, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Confidence > out[i-1].Confidence {
			t.Fatalf("output not confidence-descending at %d: %v > %v",
				i, out[i].Confidence, out[i-1].Confidence)
		}
	}
}

func TestDeduplicate_StableOnEqualConfidence(t *testing.T) {
	a := det("Exportar datos", 0.8, 10, 10, 150, 40)
	b := det("Generar reporte", 0.8, 10, 100, 160, 130)

	out := Deduplicate([]*Detection{a, b}, 0.7)

	if len(out) != 2 || out[0] != a || out[1] != b {
		t.Fatalf("equal-confidence detections must keep input order")
	}
}

func TestDeduplicate_DropsSpatialDuplicate(t *testing.T) {
	// Different readings of the same physical label: low text similarity
	// but nearly identical boxes.
	dets := []*Detection{
		det("Craer podido", 0.6, 100, 100, 220, 130),
		det("Crear pedido", 0.9, 102, 101, 222, 131),
	}

	out := Deduplicate(dets, 0.7)

	if len(out) != 1 {
		t.Fatalf("expected spatial duplicate to be dropped, got %d", len(out))
	}
	if out[0].Text != "Crear pedido" {
		t.Errorf("kept wrong representative: %q", out[0].Text)
	}
}

func TestDeduplicate_SimilarityAtThresholdKept(t *testing.T) {
	// Jaccard of {abrir,sesion,nueva} and {abrir,sesion,vieja} is 2/4.
	// The comparison is strictly greater-than, so at threshold 0.5 both
	// survive.
	dets := []*Detection{
		det("abrir sesion nueva", 0.9, 10, 10, 200, 40),
		det("abrir sesion vieja", 0.8, 10, 200, 200, 230),
	}

	out := Deduplicate(dets, 0.5)

	if len(out) != 2 {
		t.Fatalf("similarity equal to threshold must not discard, got %d", len(out))
	}
}

func TestDeduplicate_Empty(t *testing.T) {
	out := Deduplicate(nil, 0.7)

	if len(out) != 0 {
		t.Errorf("expected empty output, got %d", len(out))
	}
}

func TestTextSimilarity(t *testing.T) {
	cases := []struct {
		t1, t2 string
		want   float64
	}{
		{"crear pedido", "crear pedido", 1.0},       // identical
		{"crear pedido", "crear pedido nuevo", 1.0}, // substring
		{"Crear Pedido", "crear pedido nuevo", 1.0}, // case-insensitive
		{"crear pedido", "crear reporte", 1.0 / 3},  // one of three tokens shared
		{"abrir sesion nueva", "abrir sesion vieja", 0.5},
		{"exportar datos", "generar reporte", 0.0},
	}

	for _, c := range cases {
		got := textSimilarity(c.t1, c.t2)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("textSimilarity(%q, %q) = %v, want %v", c.t1, c.t2, got, c.want)
		}
		sym := textSimilarity(c.t2, c.t1)
		if math.Abs(got-sym) > 1e-9 {
			t.Errorf("textSimilarity not symmetric for (%q, %q): %v vs %v", c.t1, c.t2, got, sym)
		}
	}
}
