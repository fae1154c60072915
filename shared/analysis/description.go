package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"insight-stack/internal/models"

	"google.golang.org/genai"
)

// descriptionKind scores the video description for click-through and SEO
// effectiveness. The search-performance snapshot is optional context: when
// present it is fed to the model and copied onto the stored row.
type descriptionKind struct{}

func (descriptionKind) Name() models.AnalysisKind { return models.KindDescriptionCTR }

func (descriptionKind) RequiredInputs() []Input {
	return []Input{InputMetadata}
}

func (descriptionKind) BuildPrompt(vc *models.VideoContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Analyze this YouTube video description for click-through and conversion effectiveness:

**TITLE:** %s

**DESCRIPTION:** %s
`, vc.Video.Title, truncate(vc.Video.Description, 4000))

	if vc.Video.Description == "" {
		b.WriteString("\nThe description is empty. Score accordingly and list what an effective description for this title would contain.\n")
	}

	if vc.Serp != nil {
		fmt.Fprintf(&b, `
**SEARCH PERFORMANCE (last 90 days):**
Main keyword: %s
Views: %d, Impressions: %d, Overall CTR: %.2f%%
`, vc.Serp.MainKeyword, vc.Serp.TotalViews, vc.Serp.TotalImpressions, vc.Serp.OverallCTR)
		for _, src := range vc.Serp.ByTrafficSource {
			fmt.Fprintf(&b, "- %s: %d views, %d impressions, %.2f%% CTR\n", src.Source, src.Views, src.Impressions, src.AvgCTR)
		}
	}

	b.WriteString(`
Score each dimension on a 0-10 scale: CTA effectiveness, overall description
quality, SEO strength, and link positioning (links in the first 200 characters
are prime real estate). Count the total links and the affiliate links. List
concrete optimization suggestions, elements the description is missing, and
its current strengths.`)
	return b.String()
}

func (descriptionKind) ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"cta_effectiveness_score":   scoreSchema("CTA effectiveness, 0-10"),
			"description_quality_score": scoreSchema("Overall description quality, 0-10"),
			"seo_score":                 scoreSchema("SEO strength, 0-10"),
			"link_positioning_score":    scoreSchema("Link placement effectiveness, 0-10"),
			"total_links":               {Type: genai.TypeInteger, Description: "Total links in the description"},
			"affiliate_links":           {Type: genai.TypeInteger, Description: "Affiliate links in the description"},
			"has_clear_cta":             boolSchema("Whether the description has a clear CTA"),
			"optimization_suggestions":  listSchema("Concrete optimization suggestions"),
			"missing_elements":          listSchema("Elements the description is missing"),
			"strengths":                 listSchema("Current strengths of the description"),
		},
		Required: []string{
			"cta_effectiveness_score", "description_quality_score", "seo_score",
			"link_positioning_score", "total_links", "affiliate_links",
		},
	}
}

type descriptionPayload struct {
	CTAEffectivenessScore   float64  `json:"cta_effectiveness_score"`
	DescriptionQualityScore float64  `json:"description_quality_score"`
	SEOScore                float64  `json:"seo_score"`
	LinkPositioningScore    float64  `json:"link_positioning_score"`
	TotalLinks              int64    `json:"total_links"`
	AffiliateLinks          int64    `json:"affiliate_links"`
	HasClearCTA             *bool    `json:"has_clear_cta"`
	OptimizationSuggestions []string `json:"optimization_suggestions"`
	MissingElements         []string `json:"missing_elements"`
	Strengths               []string `json:"strengths"`
}

func (k descriptionKind) ParseResponse(raw []byte, vc *models.VideoContext, ts time.Time) (models.Result, error) {
	var p descriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ValidationError{Kind: k.Name(), Field: "", Detail: fmt.Sprintf("response is not valid JSON: %v", err)}
	}

	scores := []struct {
		field string
		value float64
	}{
		{"cta_effectiveness_score", p.CTAEffectivenessScore},
		{"description_quality_score", p.DescriptionQualityScore},
		{"seo_score", p.SEOScore},
		{"link_positioning_score", p.LinkPositioningScore},
	}
	for _, s := range scores {
		if err := checkScore(k.Name(), s.field, s.value, 0, 10); err != nil {
			return nil, err
		}
	}
	if p.TotalLinks < 0 || p.AffiliateLinks < 0 || p.AffiliateLinks > p.TotalLinks {
		return nil, &ValidationError{Kind: k.Name(), Field: "affiliate_links", Detail: fmt.Sprintf("inconsistent link counts %d/%d", p.AffiliateLinks, p.TotalLinks)}
	}

	res := &models.DescriptionAnalysis{
		VideoID:                 vc.Video.VideoID,
		AnalysisTimestamp:       ts,
		CTAEffectivenessScore:   p.CTAEffectivenessScore,
		DescriptionQualityScore: p.DescriptionQualityScore,
		SEOScore:                p.SEOScore,
		LinkPositioningScore:    p.LinkPositioningScore,
		TotalLinks:              p.TotalLinks,
		AffiliateLinks:          p.AffiliateLinks,
		HasClearCTA:             boolOrWarn(k.Name(), "has_clear_cta", p.HasClearCTA),
		OptimizationSuggestions: orEmpty(p.OptimizationSuggestions),
		MissingElements:         orEmpty(p.MissingElements),
		Strengths:               orEmpty(p.Strengths),
	}
	if vc.Serp != nil {
		res.SerpTotalViews = vc.Serp.TotalViews
		res.SerpTotalImpressions = vc.Serp.TotalImpressions
		res.SerpOverallCTR = vc.Serp.OverallCTR
		res.MainKeyword = vc.Serp.MainKeyword
		res.Silo = vc.Serp.Silo
	}
	return res, nil
}
