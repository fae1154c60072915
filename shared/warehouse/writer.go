package warehouse

import (
	"context"
	"fmt"
	"log"
	"time"

	"insight-stack/internal/models"
)

// Analysis rows are append-only: every run inserts new rows keyed by the
// analysis timestamp, never updating or deleting prior ones. Callers wanting
// the latest analysis order on timestamp descending.

type scriptAnalysisRow struct {
	VideoID                      string    `bigquery:"video_id"`
	ChannelCode                  string    `bigquery:"channel_code"`
	AnalysisTimestamp            time.Time `bigquery:"analysis_timestamp"`
	ScriptQualityScore           float64   `bigquery:"script_quality_score"`
	HookEffectivenessScore       float64   `bigquery:"hook_effectiveness_score"`
	CallToActionScore            float64   `bigquery:"call_to_action_score"`
	PersuasionEffectivenessScore float64   `bigquery:"persuasion_effectiveness_score"`
	UserIntentMatchScore         float64   `bigquery:"user_intent_match_score"`
	ContentValueScore            float64   `bigquery:"content_value_score"`
	ReadabilityScore             float64   `bigquery:"readability_score"`
	PersuasionTechniques         []string  `bigquery:"persuasion_techniques"`
	KeyStrengths                 []string  `bigquery:"key_strengths"`
	ImprovementAreas             []string  `bigquery:"improvement_areas"`
	TargetAudience               string    `bigquery:"target_audience"`
	IdentifiedIntent             string    `bigquery:"identified_intent"`
	HasClearIntro                bool      `bigquery:"has_clear_intro"`
	HasClearCTA                  bool      `bigquery:"has_clear_cta"`
	ProblemSolutionStructure     bool      `bigquery:"problem_solution_structure"`
}

type descriptionAnalysisRow struct {
	VideoID                 string    `bigquery:"video_id"`
	AnalysisTimestamp       time.Time `bigquery:"analysis_timestamp"`
	CTAEffectivenessScore   float64   `bigquery:"cta_effectiveness_score"`
	DescriptionQualityScore float64   `bigquery:"description_quality_score"`
	SEOScore                float64   `bigquery:"seo_score"`
	LinkPositioningScore    float64   `bigquery:"link_positioning_score"`
	TotalLinks              int64     `bigquery:"total_links"`
	AffiliateLinks          int64     `bigquery:"affiliate_links"`
	HasClearCTA             bool      `bigquery:"has_clear_cta"`
	OptimizationSuggestions []string  `bigquery:"optimization_suggestions"`
	MissingElements         []string  `bigquery:"missing_elements"`
	Strengths               []string  `bigquery:"strengths"`
	SerpTotalViews          int64     `bigquery:"serp_total_views"`
	SerpTotalImpressions    int64     `bigquery:"serp_total_impressions"`
	SerpOverallCTR          float64   `bigquery:"serp_overall_ctr"`
	MainKeyword             string    `bigquery:"main_keyword"`
	Silo                    string    `bigquery:"silo"`
}

type affiliateRecommendationRow struct {
	VideoID                 string    `bigquery:"video_id"`
	RecommendationTimestamp time.Time `bigquery:"recommendation_timestamp"`
	ProductRank             int64     `bigquery:"product_rank"`
	ProductName             string    `bigquery:"product_name"`
	ProductCategory         string    `bigquery:"product_category"`
	RelevanceScore          float64   `bigquery:"relevance_score"`
	ConversionProbability   float64   `bigquery:"conversion_probability"`
	RecommendationReasoning string    `bigquery:"recommendation_reasoning"`
	WhereToMention          string    `bigquery:"where_to_mention"`
	MentionedInVideo        bool      `bigquery:"mentioned_in_video"`
	AmazonASIN              string    `bigquery:"amazon_asin"`
	PriceRange              string    `bigquery:"price_range"`
}

type conversionAnalysisRow struct {
	VideoID                 string    `bigquery:"video_id"`
	AnalysisTimestamp       time.Time `bigquery:"analysis_timestamp"`
	MetricsDate             time.Time `bigquery:"metrics_date"`
	Revenue                 float64   `bigquery:"revenue"`
	Clicks                  int64     `bigquery:"clicks"`
	Sales                   int64     `bigquery:"sales"`
	Views                   int64     `bigquery:"views"`
	ConversionRate          float64   `bigquery:"conversion_rate"`
	RevenuePerClick         float64   `bigquery:"revenue_per_click"`
	RevenuePer1kViews       float64   `bigquery:"revenue_per_1k_views"`
	ConversionDrivers       []string  `bigquery:"conversion_drivers"`
	UnderperformanceReasons []string  `bigquery:"underperformance_reasons"`
	Recommendations         []string  `bigquery:"recommendations"`
	PerformanceAssessment   string    `bigquery:"performance_assessment"`
	KeyInsight              string    `bigquery:"key_insight"`
}

// AppendAnalysisResult streams one analysis result into its kind's fixed
// table. Affiliate runs expand into one row per recommended product, all
// sharing the run's timestamp.
func (c *Client) AppendAnalysisResult(ctx context.Context, res models.Result) error {
	switch r := res.(type) {
	case *models.ScriptAnalysis:
		return c.insert(ctx, tableScriptAnalysis, &scriptAnalysisRow{
			VideoID:                      r.VideoID,
			ChannelCode:                  r.ChannelCode,
			AnalysisTimestamp:            r.AnalysisTimestamp,
			ScriptQualityScore:           r.ScriptQualityScore,
			HookEffectivenessScore:       r.HookEffectivenessScore,
			CallToActionScore:            r.CallToActionScore,
			PersuasionEffectivenessScore: r.PersuasionEffectivenessScore,
			UserIntentMatchScore:         r.UserIntentMatchScore,
			ContentValueScore:            r.ContentValueScore,
			ReadabilityScore:             r.ReadabilityScore,
			PersuasionTechniques:         r.PersuasionTechniques,
			KeyStrengths:                 r.KeyStrengths,
			ImprovementAreas:             r.ImprovementAreas,
			TargetAudience:               r.TargetAudience,
			IdentifiedIntent:             r.IdentifiedIntent,
			HasClearIntro:                r.HasClearIntro,
			HasClearCTA:                  r.HasClearCTA,
			ProblemSolutionStructure:     r.ProblemSolutionStructure,
		})

	case *models.DescriptionAnalysis:
		return c.insert(ctx, tableDescAnalysis, &descriptionAnalysisRow{
			VideoID:                 r.VideoID,
			AnalysisTimestamp:       r.AnalysisTimestamp,
			CTAEffectivenessScore:   r.CTAEffectivenessScore,
			DescriptionQualityScore: r.DescriptionQualityScore,
			SEOScore:                r.SEOScore,
			LinkPositioningScore:    r.LinkPositioningScore,
			TotalLinks:              r.TotalLinks,
			AffiliateLinks:          r.AffiliateLinks,
			HasClearCTA:             r.HasClearCTA,
			OptimizationSuggestions: r.OptimizationSuggestions,
			MissingElements:         r.MissingElements,
			Strengths:               r.Strengths,
			SerpTotalViews:          r.SerpTotalViews,
			SerpTotalImpressions:    r.SerpTotalImpressions,
			SerpOverallCTR:          r.SerpOverallCTR,
			MainKeyword:             r.MainKeyword,
			Silo:                    r.Silo,
		})

	case *models.AffiliateAnalysis:
		rows := make([]*affiliateRecommendationRow, 0, len(r.Products))
		for _, p := range r.Products {
			rows = append(rows, &affiliateRecommendationRow{
				VideoID:                 r.VideoID,
				RecommendationTimestamp: r.AnalysisTimestamp,
				ProductRank:             p.ProductRank,
				ProductName:             p.ProductName,
				ProductCategory:         p.ProductCategory,
				RelevanceScore:          p.RelevanceScore,
				ConversionProbability:   p.ConversionProbability,
				RecommendationReasoning: p.RecommendationReasoning,
				WhereToMention:          p.WhereToMention,
				MentionedInVideo:        p.MentionedInVideo,
				AmazonASIN:              p.AmazonASIN,
				PriceRange:              p.PriceRange,
			})
		}
		return c.insert(ctx, tableAffiliateRecs, rows)

	case *models.ConversionAnalysis:
		return c.insert(ctx, tableConversionAnalysis, &conversionAnalysisRow{
			VideoID:                 r.VideoID,
			AnalysisTimestamp:       r.AnalysisTimestamp,
			MetricsDate:             r.MetricsDate,
			Revenue:                 r.Revenue,
			Clicks:                  r.Clicks,
			Sales:                   r.Sales,
			Views:                   r.Views,
			ConversionRate:          r.ConversionRate,
			RevenuePerClick:         r.RevenuePerClick,
			RevenuePer1kViews:       r.RevenuePer1kViews,
			ConversionDrivers:       r.ConversionDrivers,
			UnderperformanceReasons: r.UnderperformanceReasons,
			Recommendations:         r.Recommendations,
			PerformanceAssessment:   r.PerformanceAssessment,
			KeyInsight:              r.KeyInsight,
		})

	default:
		return fmt.Errorf("unsupported analysis result type %T", res)
	}
}

func (c *Client) insert(ctx context.Context, table string, rows any) error {
	inserter := c.bq.Dataset(c.analysisDataset).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("failed to append rows to %s.%s: %w", c.analysisDataset, table, err)
	}
	log.Printf("Appended analysis rows to %s.%s", c.analysisDataset, table)
	return nil
}
