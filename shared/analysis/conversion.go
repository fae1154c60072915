package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"insight-stack/internal/models"

	"google.golang.org/genai"
)

// conversionKind explains what drives or blocks affiliate conversions for a
// video, grounded in its revenue metrics. The transcript is optional
// context: the assessment degrades gracefully without it.
type conversionKind struct{}

func (conversionKind) Name() models.AnalysisKind { return models.KindConversionDrivers }

func (conversionKind) RequiredInputs() []Input {
	return []Input{InputMetadata, InputRevenueMetrics}
}

func (conversionKind) BuildPrompt(vc *models.VideoContext) string {
	rm := vc.Revenue

	transcript := "No transcript available"
	if vc.Transcript != nil {
		transcript = truncate(*vc.Transcript, 2000)
	}
	description := "No description available"
	if vc.Video.Description != "" {
		description = truncate(vc.Video.Description, 300)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Analyze this YouTube video's conversion performance and identify what drives (or hinders) affiliate sales.

Video Title: %s
Description: %s
Transcript: %s

Performance Metrics:
- Total Revenue: $%.2f
- Total Clicks: %d
- Total Sales: %d
- Total Views: %d
- Conversion Rate: %.2f%% (sales/clicks)
- Revenue per Click: $%.2f
- Revenue per 1k Views: $%.2f
`,
		vc.Video.Title, description, transcript,
		rm.Revenue, rm.Clicks, rm.Sales, rm.OrganicViews,
		rm.ConversionRate, rm.RevenuePerClick, rm.RevenuePer1kView)

	b.WriteString(`
Identify 3-5 specific elements that drive conversions, 3-5 reasons conversion
might be low (if applicable), and 3-5 actionable recommendations. Focus on how
the script builds trust and urgency, CTA quality and placement, product-market
fit, viewer intent alignment, and typical benchmarks (good conversion: >10%,
excellent: >20%).`)
	return b.String()
}

func (conversionKind) ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"conversion_drivers":       listSchema("Specific elements that drive conversions"),
			"underperformance_reasons": listSchema("Reasons conversion might be low"),
			"recommendations":          listSchema("Actionable recommendations"),
			"performance_assessment":   stringSchema("Overall assessment: excellent/good/average/poor"),
			"key_insight":              stringSchema("One sentence key insight"),
		},
		Required: []string{"conversion_drivers", "recommendations", "performance_assessment", "key_insight"},
	}
}

type conversionPayload struct {
	ConversionDrivers       []string `json:"conversion_drivers"`
	UnderperformanceReasons []string `json:"underperformance_reasons"`
	Recommendations         []string `json:"recommendations"`
	PerformanceAssessment   string   `json:"performance_assessment"`
	KeyInsight              string   `json:"key_insight"`
}

func (k conversionKind) ParseResponse(raw []byte, vc *models.VideoContext, ts time.Time) (models.Result, error) {
	var p conversionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ValidationError{Kind: k.Name(), Field: "", Detail: fmt.Sprintf("response is not valid JSON: %v", err)}
	}
	if len(p.ConversionDrivers) == 0 && len(p.Recommendations) == 0 {
		return nil, &ValidationError{Kind: k.Name(), Field: "conversion_drivers", Detail: "response carries no drivers and no recommendations"}
	}

	rm := vc.Revenue
	return &models.ConversionAnalysis{
		VideoID:                 vc.Video.VideoID,
		AnalysisTimestamp:       ts,
		MetricsDate:             rm.MetricsDate,
		Revenue:                 rm.Revenue,
		Clicks:                  rm.Clicks,
		Sales:                   rm.Sales,
		Views:                   rm.OrganicViews,
		ConversionRate:          rm.ConversionRate,
		RevenuePerClick:         rm.RevenuePerClick,
		RevenuePer1kViews:       rm.RevenuePer1kView,
		ConversionDrivers:       orEmpty(p.ConversionDrivers),
		UnderperformanceReasons: orEmpty(p.UnderperformanceReasons),
		Recommendations:         orEmpty(p.Recommendations),
		PerformanceAssessment:   p.PerformanceAssessment,
		KeyInsight:              p.KeyInsight,
	}, nil
}
