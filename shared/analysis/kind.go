package analysis

import (
	"fmt"
	"log"
	"math"
	"time"
	"unicode/utf8"

	"insight-stack/internal/models"

	"google.golang.org/genai"
)

// Input names one warehouse-derived field of a VideoContext.
type Input string

const (
	InputMetadata       Input = "metadata"
	InputTranscript     Input = "transcript"
	InputRevenueMetrics Input = "revenue_metrics"
	InputSerpData       Input = "serp_data"
)

// Kind is one of the four analysis types. Implementations are stateless:
// they declare which context inputs they need, render the prompt and the
// structured-output schema for one video, and validate the raw response into
// a typed result.
type Kind interface {
	Name() models.AnalysisKind
	RequiredInputs() []Input
	BuildPrompt(vc *models.VideoContext) string
	ResponseSchema() *genai.Schema
	ParseResponse(raw []byte, vc *models.VideoContext, ts time.Time) (models.Result, error)
}

// Kinds returns the closed set of analysis kind implementations, in
// reporting order.
func Kinds() []Kind {
	return []Kind{scriptKind{}, descriptionKind{}, affiliateKind{}, conversionKind{}}
}

// KindByName resolves a kind implementation from its wire name.
func KindByName(name models.AnalysisKind) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Name() == name {
			return k, true
		}
	}
	return nil, false
}

// has reports whether the context carries the named input. Metadata presence
// means the registration row exists; the other inputs are present only when
// the warehouse returned a row, regardless of content.
func has(vc *models.VideoContext, in Input) bool {
	switch in {
	case InputMetadata:
		return vc.Video != nil
	case InputTranscript:
		return vc.Transcript != nil
	case InputRevenueMetrics:
		return vc.Revenue != nil
	case InputSerpData:
		return vc.Serp != nil
	}
	return false
}

// firstMissingInput returns the first mandatory input of k absent from vc,
// or "" if the kind can run.
func firstMissingInput(k Kind, vc *models.VideoContext) Input {
	for _, in := range k.RequiredInputs() {
		if !has(vc, in) {
			return in
		}
	}
	return ""
}

// checkScore rejects non-finite or out-of-range scores. Out-of-range values
// are validation failures, never clamped: clamping would hide a misbehaving
// model behind plausible numbers.
func checkScore(kind models.AnalysisKind, field string, v, lo, hi float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Kind: kind, Field: field, Detail: "score is not a finite number"}
	}
	if v < lo || v > hi {
		return &ValidationError{Kind: kind, Field: field, Detail: fmt.Sprintf("score %.2f outside range %.0f-%.0f", v, lo, hi)}
	}
	return nil
}

// orEmpty normalizes an absent list field to an empty slice so stored rows
// never carry nulls.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// boolOrWarn defaults an absent boolean field to false, recording a warning
// since the schema asked the model to always emit it.
func boolOrWarn(kind models.AnalysisKind, field string, v *bool) bool {
	if v == nil {
		log.Printf("Warning: %s response missing boolean field %q, defaulting to false", kind, field)
		return false
	}
	return *v
}

// stringSchema, listSchema, scoreSchema, and boolSchema are the shared
// building blocks for the kinds' structured-output schemas.
func stringSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func listSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: desc}
}

func scoreSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: desc}
}

func boolSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeBoolean, Description: desc}
}

// truncate caps prompt inputs so long transcripts stay within token limits.
// The cut backs up to a rune boundary so the prompt stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "... [truncated]"
}
