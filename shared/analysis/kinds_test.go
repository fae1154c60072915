package analysis

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"insight-stack/internal/models"
)

func testContext() *models.VideoContext {
	transcript := "Welcome back! Today we review the best code editors of the year."
	return &models.VideoContext{
		Video: &models.Video{
			VideoID:     "abc123",
			ChannelCode: "TECH",
			Title:       "Best Code Editors 2026",
			Description: "My honest ranking. Links below.",
		},
		Transcript: &transcript,
		Revenue: &models.RevenueMetrics{
			VideoID:          "abc123",
			MetricsDate:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			Revenue:          142.50,
			Clicks:           380,
			Sales:            21,
			OrganicViews:     54000,
			ConversionRate:   5.53,
			RevenuePerClick:  0.375,
			RevenuePer1kView: 2.64,
		},
		Serp: &models.SerpSnapshot{
			VideoID:          "abc123",
			MainKeyword:      "best code editor",
			Silo:             "dev-tools",
			TotalViews:       12000,
			TotalImpressions: 90000,
			OverallCTR:       4.2,
		},
	}
}

func TestRequiredInputs(t *testing.T) {
	tests := []struct {
		kind models.AnalysisKind
		want []Input
	}{
		{models.KindScriptQuality, []Input{InputMetadata, InputTranscript}},
		{models.KindDescriptionCTR, []Input{InputMetadata}},
		{models.KindAffiliate, []Input{InputMetadata, InputTranscript}},
		{models.KindConversionDrivers, []Input{InputMetadata, InputRevenueMetrics}},
	}

	for _, tt := range tests {
		k, ok := KindByName(tt.kind)
		if !ok {
			t.Fatalf("KindByName(%q) not found", tt.kind)
		}
		got := k.RequiredInputs()
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %d required inputs, want %d", tt.kind, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: required input %d = %q, want %q", tt.kind, i, got[i], tt.want[i])
			}
		}
	}
}

func TestFirstMissingInput(t *testing.T) {
	script, _ := KindByName(models.KindScriptQuality)
	conversion, _ := KindByName(models.KindConversionDrivers)
	description, _ := KindByName(models.KindDescriptionCTR)

	vc := testContext()
	vc.Transcript = nil
	vc.Revenue = nil

	if got := firstMissingInput(script, vc); got != InputTranscript {
		t.Errorf("script missing input = %q, want %q", got, InputTranscript)
	}
	if got := firstMissingInput(conversion, vc); got != InputRevenueMetrics {
		t.Errorf("conversion missing input = %q, want %q", got, InputRevenueMetrics)
	}
	if got := firstMissingInput(description, vc); got != "" {
		t.Errorf("description missing input = %q, want none", got)
	}
}

func TestScriptParseResponse(t *testing.T) {
	k, _ := KindByName(models.KindScriptQuality)
	vc := testContext()
	ts := time.Now()

	raw := []byte(`{
		"script_quality_score": 8,
		"hook_effectiveness_score": 7,
		"call_to_action_score": 6,
		"persuasion_effectiveness_score": 7.5,
		"user_intent_match_score": 9,
		"content_value_score": 8,
		"readability_score": 7,
		"persuasion_techniques": ["social_proof", "specificity"],
		"key_strengths": ["strong hook"],
		"target_audience": "developers",
		"has_clear_intro": true,
		"has_clear_cta": false
	}`)

	res, err := k.ParseResponse(raw, vc, ts)
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	sa, ok := res.(*models.ScriptAnalysis)
	if !ok {
		t.Fatalf("result type = %T, want *models.ScriptAnalysis", res)
	}

	if sa.VideoID != "abc123" || sa.ChannelCode != "TECH" {
		t.Errorf("identity fields = %q/%q, want abc123/TECH", sa.VideoID, sa.ChannelCode)
	}
	if !sa.AnalysisTimestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", sa.AnalysisTimestamp, ts)
	}
	if sa.ScriptQualityScore != 8 || sa.PersuasionEffectivenessScore != 7.5 {
		t.Errorf("scores not carried through: %+v", sa)
	}
	if !sa.HasClearIntro || sa.HasClearCTA {
		t.Errorf("bools = %v/%v, want true/false", sa.HasClearIntro, sa.HasClearCTA)
	}
	// problem_solution_structure was absent: defaults to false
	if sa.ProblemSolutionStructure {
		t.Error("missing boolean should default to false")
	}
	// improvement_areas was absent: stored as empty, never nil
	if sa.ImprovementAreas == nil {
		t.Error("absent list field should be empty, not nil")
	}
	if len(sa.PersuasionTechniques) != 2 {
		t.Errorf("persuasion techniques = %v, want 2 entries", sa.PersuasionTechniques)
	}
}

func TestScriptParseResponseRejectsOutOfRangeScore(t *testing.T) {
	k, _ := KindByName(models.KindScriptQuality)
	vc := testContext()

	// 15.0 is outside 1-10 and must be rejected, not clamped
	raw := []byte(`{
		"script_quality_score": 15.0,
		"hook_effectiveness_score": 7,
		"call_to_action_score": 6,
		"persuasion_effectiveness_score": 7,
		"user_intent_match_score": 9,
		"content_value_score": 8,
		"readability_score": 7
	}`)

	_, err := k.ParseResponse(raw, vc, time.Now())
	if err == nil {
		t.Fatal("expected validation error for out-of-range score")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if ve.Field != "script_quality_score" {
		t.Errorf("field = %q, want script_quality_score", ve.Field)
	}
	if IsRetryable(err) {
		t.Error("validation errors must not be retryable")
	}
}

func TestScriptParseResponseRejectsMalformedJSON(t *testing.T) {
	k, _ := KindByName(models.KindScriptQuality)
	_, err := k.ParseResponse([]byte("not json"), testContext(), time.Now())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestDescriptionParseResponse(t *testing.T) {
	k, _ := KindByName(models.KindDescriptionCTR)
	vc := testContext()

	raw := []byte(`{
		"cta_effectiveness_score": 0,
		"description_quality_score": 5,
		"seo_score": 6.5,
		"link_positioning_score": 10,
		"total_links": 4,
		"affiliate_links": 2,
		"has_clear_cta": true,
		"optimization_suggestions": ["move links up"],
		"strengths": ["keyword in first line"]
	}`)

	res, err := k.ParseResponse(raw, vc, time.Now())
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	da := res.(*models.DescriptionAnalysis)

	if da.CTAEffectivenessScore != 0 || da.LinkPositioningScore != 10 {
		t.Errorf("boundary scores rejected: %+v", da)
	}
	if da.MissingElements == nil {
		t.Error("absent list field should be empty, not nil")
	}
	if da.MainKeyword != "best code editor" || da.SerpTotalImpressions != 90000 {
		t.Errorf("SERP enrichment not carried through: %+v", da)
	}
}

func TestDescriptionParseResponseWithoutSerp(t *testing.T) {
	k, _ := KindByName(models.KindDescriptionCTR)
	vc := testContext()
	vc.Serp = nil

	raw := []byte(`{
		"cta_effectiveness_score": 3,
		"description_quality_score": 4,
		"seo_score": 2,
		"link_positioning_score": 5,
		"total_links": 0,
		"affiliate_links": 0
	}`)

	res, err := k.ParseResponse(raw, vc, time.Now())
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	da := res.(*models.DescriptionAnalysis)
	if da.MainKeyword != "" || da.SerpTotalViews != 0 {
		t.Errorf("SERP fields should stay zero without a snapshot: %+v", da)
	}
}

func TestDescriptionParseResponseRejectsInconsistentLinks(t *testing.T) {
	k, _ := KindByName(models.KindDescriptionCTR)

	raw := []byte(`{
		"cta_effectiveness_score": 3,
		"description_quality_score": 4,
		"seo_score": 2,
		"link_positioning_score": 5,
		"total_links": 1,
		"affiliate_links": 3
	}`)

	_, err := k.ParseResponse(raw, testContext(), time.Now())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestAffiliateParseResponse(t *testing.T) {
	k, _ := KindByName(models.KindAffiliate)

	raw := []byte(`{"products": [
		{"product_name": "JetFlow IDE", "product_category": "developer tools", "relevance_score": 9, "conversion_probability": 0.5},
		{"product_name": "CloudShip Pro", "product_category": "SaaS", "relevance_score": 7, "conversion_probability": 0.3, "mentioned_in_video": true}
	]}`)

	res, err := k.ParseResponse(raw, testContext(), time.Now())
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	aa := res.(*models.AffiliateAnalysis)

	if len(aa.Products) != 2 {
		t.Fatalf("got %d products, want 2", len(aa.Products))
	}
	for i, p := range aa.Products {
		if p.ProductRank != int64(i+1) {
			t.Errorf("product %d rank = %d, want %d", i, p.ProductRank, i+1)
		}
	}
	if aa.Products[0].MentionedInVideo {
		t.Error("absent mentioned_in_video should default to false")
	}
	if !aa.Products[1].MentionedInVideo {
		t.Error("explicit mentioned_in_video lost")
	}
}

func TestAffiliateParseResponseTruncatesToCap(t *testing.T) {
	k, _ := KindByName(models.KindAffiliate)

	raw := []byte(`{"products": [
		{"product_name": "P1", "product_category": "c", "relevance_score": 9, "conversion_probability": 0.5},
		{"product_name": "P2", "product_category": "c", "relevance_score": 8, "conversion_probability": 0.5},
		{"product_name": "P3", "product_category": "c", "relevance_score": 7, "conversion_probability": 0.5},
		{"product_name": "P4", "product_category": "c", "relevance_score": 6, "conversion_probability": 0.5},
		{"product_name": "P5", "product_category": "c", "relevance_score": 5, "conversion_probability": 0.5},
		{"product_name": "P6", "product_category": "c", "relevance_score": 4, "conversion_probability": 0.5}
	]}`)

	res, err := k.ParseResponse(raw, testContext(), time.Now())
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	aa := res.(*models.AffiliateAnalysis)
	if len(aa.Products) != maxAffiliateProducts {
		t.Errorf("got %d products, want %d", len(aa.Products), maxAffiliateProducts)
	}
}

func TestAffiliateParseResponseRejections(t *testing.T) {
	k, _ := KindByName(models.KindAffiliate)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty product list", `{"products": []}`},
		{"empty product name", `{"products": [{"product_name": "", "product_category": "c", "relevance_score": 5, "conversion_probability": 0.5}]}`},
		{"relevance out of range", `{"products": [{"product_name": "P", "product_category": "c", "relevance_score": 0, "conversion_probability": 0.5}]}`},
		{"probability above one", `{"products": [{"product_name": "P", "product_category": "c", "relevance_score": 5, "conversion_probability": 1.5}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := k.ParseResponse([]byte(tt.raw), testContext(), time.Now())
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestConversionParseResponse(t *testing.T) {
	k, _ := KindByName(models.KindConversionDrivers)
	vc := testContext()

	raw := []byte(`{
		"conversion_drivers": ["specific product demos"],
		"recommendations": ["add timestamped CTA"],
		"performance_assessment": "good",
		"key_insight": "High intent traffic converts despite weak CTA."
	}`)

	res, err := k.ParseResponse(raw, vc, time.Now())
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	ca := res.(*models.ConversionAnalysis)

	if ca.Revenue != 142.50 || ca.Clicks != 380 || ca.Views != 54000 {
		t.Errorf("revenue metrics not echoed: %+v", ca)
	}
	if !ca.MetricsDate.Equal(vc.Revenue.MetricsDate) {
		t.Errorf("metrics date = %v, want %v", ca.MetricsDate, vc.Revenue.MetricsDate)
	}
	if ca.UnderperformanceReasons == nil {
		t.Error("absent list field should be empty, not nil")
	}
}

func TestConversionParseResponseRejectsEmptyAnalysis(t *testing.T) {
	k, _ := KindByName(models.KindConversionDrivers)

	raw := []byte(`{"performance_assessment": "average", "key_insight": "n/a"}`)
	_, err := k.ParseResponse(raw, testContext(), time.Now())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestConversionPromptDegradesWithoutTranscript(t *testing.T) {
	k, _ := KindByName(models.KindConversionDrivers)
	vc := testContext()
	vc.Transcript = nil

	prompt := k.BuildPrompt(vc)
	if want := "No transcript available"; !strings.Contains(prompt, want) {
		t.Errorf("prompt missing %q", want)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 100); got != "short" {
		t.Errorf("truncate left short string = %q", got)
	}
	long := truncate("abcdefghij", 4)
	if long != "abcd... [truncated]" {
		t.Errorf("truncate = %q", long)
	}

	// A cut landing mid-rune backs up to the previous boundary.
	multi := truncate("aé", 2)
	if multi != "a... [truncated]" {
		t.Errorf("truncate mid-rune = %q", multi)
	}
	if !utf8.ValidString(multi) {
		t.Errorf("truncate produced invalid UTF-8: %q", multi)
	}
}
