package pipeline

import (
	"regexp"
	"strings"
)

// Blacklist is the set of known actor names to exclude from use-case
// output. Names are stored lowercased and trimmed. A blacklist is built
// once per run and never mutated afterwards; the pipeline relies on that
// immutability (it holds the only shared state between comparisons).
type Blacklist struct {
	names []string
}

// NewBlacklist builds a blacklist from actor names. Empty and
// whitespace-only names are ignored.
func NewBlacklist(names []string) *Blacklist {
	b := &Blacklist{}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			b.names = append(b.names, n)
		}
	}
	return b
}

// Names returns the normalized blacklist entries in insertion order.
func (b *Blacklist) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Matches reports whether text names a blacklisted actor. Matching is
// case-insensitive containment in either direction, which deliberately
// over-filters: a legitimate use case whose text happens to contain an
// actor's name is excluded too. That precision/recall tradeoff is
// intentional; actor names leaking into the report are worse than the
// occasional lost label.
func (b *Blacklist) Matches(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, actor := range b.names {
		if actor == t || strings.Contains(t, actor) || strings.Contains(actor, t) {
			return true
		}
	}
	return false
}

// Keywords that mark UML relationship annotations once the stereotype
// markers are stripped. "includ" catches OCR truncations.
var relationKeywords = []string{
	"include", "extend", "includes", "extends", "includ",
}

// Stereotype patterns, including partial/malformed variants where OCR
// lost one side of the angle brackets. The bare "tend" entry is
// intentionally broad: corrupted readings of "extend" frequently keep
// only that fragment.
var stereotypePatterns = []*regexp.Regexp{
	regexp.MustCompile(`<<\s*include\s*>>`),
	regexp.MustCompile(`<<\s*extend\s*>>`),
	regexp.MustCompile(`<<\s*includes?\s*>>?`),
	regexp.MustCompile(`<<\s*extends?\s*>>?`),
	regexp.MustCompile(`include\s*>>`),
	regexp.MustCompile(`extend\s*>>`),
	regexp.MustCompile(`<<\s*include`),
	regexp.MustCompile(`<<\s*extend`),
	regexp.MustCompile(`tend`),
}

var arrowGlyphs = []string{"->", "-->", ">>", "<<"}

// IsActorOrRelation decides whether text should be excluded from the
// use-case output because it names an actor or is a UML
// stereotype/relationship annotation. The first matching check wins:
//
//  1. blacklisted actor name (containment either way),
//  2. relationship keyword after stripping << >> markers,
//  3. stereotype regex against the raw lowercased text,
//  4. arrow glyph combined with include/extend.
func IsActorOrRelation(text string, blacklist *Blacklist) bool {
	lower := strings.ToLower(strings.TrimSpace(text))

	if blacklist != nil && blacklist.Matches(lower) {
		return true
	}

	cleaned := strings.ReplaceAll(lower, "<<", "")
	cleaned = strings.ReplaceAll(cleaned, ">>", "")
	cleaned = strings.TrimSpace(cleaned)
	for _, kw := range relationKeywords {
		if strings.Contains(cleaned, kw) {
			return true
		}
	}

	for _, pat := range stereotypePatterns {
		if pat.MatchString(lower) {
			return true
		}
	}

	for _, arrow := range arrowGlyphs {
		if strings.Contains(text, arrow) {
			if strings.Contains(lower, "include") || strings.Contains(lower, "extend") {
				return true
			}
		}
	}

	return false
}

// Filter drops detections that name actors or relationship annotations
// and converts the survivors into use-case records. A filtered detection
// is simply dropped, never an error. Output order follows the input
// (the deduplicator's acceptance order).
func Filter(dets []*Detection, blacklist *Blacklist) []UseCase {
	out := make([]UseCase, 0, len(dets))
	for _, d := range dets {
		if IsActorOrRelation(d.Text, blacklist) {
			continue
		}
		out = append(out, UseCase{
			Text:       d.Text,
			Confidence: d.Confidence,
			Box:        d.Box,
		})
	}
	return out
}
