package models

import "time"

// AnalysisKind identifies one of the four AI analysis types.
type AnalysisKind string

const (
	KindScriptQuality     AnalysisKind = "script_quality"
	KindDescriptionCTR    AnalysisKind = "description_ctr"
	KindAffiliate         AnalysisKind = "affiliate_recommendations"
	KindConversionDrivers AnalysisKind = "conversion_drivers"
)

// AllKinds lists the closed set of analysis kinds in reporting order.
func AllKinds() []AnalysisKind {
	return []AnalysisKind{KindScriptQuality, KindDescriptionCTR, KindAffiliate, KindConversionDrivers}
}

// Result is the sealed interface over the four analysis payloads. Every
// result carries the video, the kind, and the moment the AI call returned.
type Result interface {
	ResultVideoID() string
	ResultKind() AnalysisKind
	ResultTimestamp() time.Time
}

// ScriptAnalysis scores the video script itself. All scores are 1-10.
type ScriptAnalysis struct {
	VideoID                      string    `json:"video_id"`
	ChannelCode                  string    `json:"channel_code"`
	AnalysisTimestamp            time.Time `json:"analysis_timestamp"`
	ScriptQualityScore           float64   `json:"script_quality_score"`
	HookEffectivenessScore       float64   `json:"hook_effectiveness_score"`
	CallToActionScore            float64   `json:"call_to_action_score"`
	PersuasionEffectivenessScore float64   `json:"persuasion_effectiveness_score"`
	UserIntentMatchScore         float64   `json:"user_intent_match_score"`
	ContentValueScore            float64   `json:"content_value_score"`
	ReadabilityScore             float64   `json:"readability_score"`
	PersuasionTechniques         []string  `json:"persuasion_techniques"`
	KeyStrengths                 []string  `json:"key_strengths"`
	ImprovementAreas             []string  `json:"improvement_areas"`
	TargetAudience               string    `json:"target_audience"`
	IdentifiedIntent             string    `json:"identified_intent"`
	HasClearIntro                bool      `json:"has_clear_intro"`
	HasClearCTA                  bool      `json:"has_clear_cta"`
	ProblemSolutionStructure     bool      `json:"problem_solution_structure"`
}

func (a *ScriptAnalysis) ResultVideoID() string      { return a.VideoID }
func (a *ScriptAnalysis) ResultKind() AnalysisKind   { return KindScriptQuality }
func (a *ScriptAnalysis) ResultTimestamp() time.Time { return a.AnalysisTimestamp }

// DescriptionAnalysis scores the video description for CTR and SEO, enriched
// with the warehouse search-performance snapshot when one exists.
type DescriptionAnalysis struct {
	VideoID                 string    `json:"video_id"`
	AnalysisTimestamp       time.Time `json:"analysis_timestamp"`
	CTAEffectivenessScore   float64   `json:"cta_effectiveness_score"`
	DescriptionQualityScore float64   `json:"description_quality_score"`
	SEOScore                float64   `json:"seo_score"`
	LinkPositioningScore    float64   `json:"link_positioning_score"`
	TotalLinks              int64     `json:"total_links"`
	AffiliateLinks          int64     `json:"affiliate_links"`
	HasClearCTA             bool      `json:"has_clear_cta"`
	OptimizationSuggestions []string  `json:"optimization_suggestions"`
	MissingElements         []string  `json:"missing_elements"`
	Strengths               []string  `json:"strengths"`
	SerpTotalViews          int64     `json:"serp_total_views"`
	SerpTotalImpressions    int64     `json:"serp_total_impressions"`
	SerpOverallCTR          float64   `json:"serp_overall_ctr"`
	MainKeyword             string    `json:"main_keyword"`
	Silo                    string    `json:"silo"`
}

func (a *DescriptionAnalysis) ResultVideoID() string      { return a.VideoID }
func (a *DescriptionAnalysis) ResultKind() AnalysisKind   { return KindDescriptionCTR }
func (a *DescriptionAnalysis) ResultTimestamp() time.Time { return a.AnalysisTimestamp }

// ProductRecommendation is one ranked affiliate product suggestion.
// RelevanceScore is 1-10, ConversionProbability is 0-1.
type ProductRecommendation struct {
	ProductRank             int64   `json:"product_rank"`
	ProductName             string  `json:"product_name"`
	ProductCategory         string  `json:"product_category"`
	RelevanceScore          float64 `json:"relevance_score"`
	ConversionProbability   float64 `json:"conversion_probability"`
	RecommendationReasoning string  `json:"recommendation_reasoning"`
	WhereToMention          string  `json:"where_to_mention"`
	MentionedInVideo        bool    `json:"mentioned_in_video"`
	AmazonASIN              string  `json:"amazon_asin,omitempty"`
	PriceRange              string  `json:"price_range,omitempty"`
}

// AffiliateAnalysis carries the ranked product recommendations for one run.
type AffiliateAnalysis struct {
	VideoID           string                  `json:"video_id"`
	AnalysisTimestamp time.Time               `json:"analysis_timestamp"`
	Products          []ProductRecommendation `json:"products"`
}

func (a *AffiliateAnalysis) ResultVideoID() string      { return a.VideoID }
func (a *AffiliateAnalysis) ResultKind() AnalysisKind   { return KindAffiliate }
func (a *AffiliateAnalysis) ResultTimestamp() time.Time { return a.AnalysisTimestamp }

// ConversionAnalysis explains what drives (or blocks) affiliate conversions,
// alongside the revenue metrics the assessment was based on.
type ConversionAnalysis struct {
	VideoID                 string    `json:"video_id"`
	AnalysisTimestamp       time.Time `json:"analysis_timestamp"`
	MetricsDate             time.Time `json:"metrics_date"`
	Revenue                 float64   `json:"revenue"`
	Clicks                  int64     `json:"clicks"`
	Sales                   int64     `json:"sales"`
	Views                   int64     `json:"views"`
	ConversionRate          float64   `json:"conversion_rate"`
	RevenuePerClick         float64   `json:"revenue_per_click"`
	RevenuePer1kViews       float64   `json:"revenue_per_1k_views"`
	ConversionDrivers       []string  `json:"conversion_drivers"`
	UnderperformanceReasons []string  `json:"underperformance_reasons"`
	Recommendations         []string  `json:"recommendations"`
	PerformanceAssessment   string    `json:"performance_assessment"`
	KeyInsight              string    `json:"key_insight"`
}

func (a *ConversionAnalysis) ResultVideoID() string      { return a.VideoID }
func (a *ConversionAnalysis) ResultKind() AnalysisKind   { return KindConversionDrivers }
func (a *ConversionAnalysis) ResultTimestamp() time.Time { return a.AnalysisTimestamp }
