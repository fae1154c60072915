package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"insight-stack/internal/models"

	"google.golang.org/genai"
)

// scriptKind scores the video script itself: overall writing quality, hook,
// CTA strength, persuasion, and intent match, all on a 1-10 scale.
type scriptKind struct{}

func (scriptKind) Name() models.AnalysisKind { return models.KindScriptQuality }

func (scriptKind) RequiredInputs() []Input {
	return []Input{InputMetadata, InputTranscript}
}

func (scriptKind) BuildPrompt(vc *models.VideoContext) string {
	return fmt.Sprintf(`Analyze this YouTube video content for quality and effectiveness in the Tech/Software niche:

**TITLE:** %s

**DESCRIPTION:** %s

**TRANSCRIPT:** %s

Score every dimension on a 1-10 scale following these guidelines:

**script_quality_score** (1-10): Overall writing quality. 1-3 poor, 4-6 average, 7-8 good, 9-10 excellent.
**hook_effectiveness_score** (1-10): Does the first 30 seconds grab attention, state the topic, create curiosity?
**call_to_action_score** (1-10): Is there a clear, specific, well-placed CTA?
**persuasion_effectiveness_score** (1-10): Social proof, urgency, objection handling, emotional appeal.
**user_intent_match_score** (1-10): Does the content match the likely search intent?
**content_value_score** (1-10): Educational and practical value delivered to the viewer.
**readability_score** (1-10): Clarity and structure of the spoken script.

List ALL persuasion techniques detected (social_proof, scarcity, authority, reciprocity,
consistency, liking, fear_of_missing_out, urgency, storytelling, contrast, specificity,
pain_point_agitation), 3-5 key strengths, and 3-5 specific improvement suggestions.`,
		vc.Video.Title,
		truncate(vc.Video.Description, 1000),
		truncate(*vc.Transcript, 15000),
	)
}

func (scriptKind) ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"script_quality_score":           scoreSchema("Overall writing quality, 1-10"),
			"hook_effectiveness_score":       scoreSchema("First 30 seconds effectiveness, 1-10"),
			"call_to_action_score":           scoreSchema("CTA clarity and strength, 1-10"),
			"persuasion_effectiveness_score": scoreSchema("Persuasiveness of the content, 1-10"),
			"user_intent_match_score":        scoreSchema("Match to likely search intent, 1-10"),
			"content_value_score":            scoreSchema("Value delivered to viewer, 1-10"),
			"readability_score":              scoreSchema("Script clarity and structure, 1-10"),
			"persuasion_techniques":          listSchema("All persuasion techniques detected"),
			"key_strengths":                  listSchema("3-5 key strengths"),
			"improvement_areas":              listSchema("3-5 specific improvement suggestions"),
			"target_audience":                stringSchema("Who this content is for"),
			"identified_intent":              stringSchema("What user problem or question this addresses"),
			"has_clear_intro":                boolSchema("Whether the video has a clear intro"),
			"has_clear_cta":                  boolSchema("Whether the video has a clear CTA"),
			"problem_solution_structure":     boolSchema("Whether the script follows a problem-solution structure"),
		},
		Required: []string{
			"script_quality_score", "hook_effectiveness_score", "call_to_action_score",
			"persuasion_effectiveness_score", "user_intent_match_score",
			"content_value_score", "readability_score",
		},
	}
}

type scriptPayload struct {
	ScriptQualityScore           float64  `json:"script_quality_score"`
	HookEffectivenessScore       float64  `json:"hook_effectiveness_score"`
	CallToActionScore            float64  `json:"call_to_action_score"`
	PersuasionEffectivenessScore float64  `json:"persuasion_effectiveness_score"`
	UserIntentMatchScore         float64  `json:"user_intent_match_score"`
	ContentValueScore            float64  `json:"content_value_score"`
	ReadabilityScore             float64  `json:"readability_score"`
	PersuasionTechniques         []string `json:"persuasion_techniques"`
	KeyStrengths                 []string `json:"key_strengths"`
	ImprovementAreas             []string `json:"improvement_areas"`
	TargetAudience               string   `json:"target_audience"`
	IdentifiedIntent             string   `json:"identified_intent"`
	HasClearIntro                *bool    `json:"has_clear_intro"`
	HasClearCTA                  *bool    `json:"has_clear_cta"`
	ProblemSolutionStructure     *bool    `json:"problem_solution_structure"`
}

func (k scriptKind) ParseResponse(raw []byte, vc *models.VideoContext, ts time.Time) (models.Result, error) {
	var p scriptPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ValidationError{Kind: k.Name(), Field: "", Detail: fmt.Sprintf("response is not valid JSON: %v", err)}
	}

	scores := []struct {
		field string
		value float64
	}{
		{"script_quality_score", p.ScriptQualityScore},
		{"hook_effectiveness_score", p.HookEffectivenessScore},
		{"call_to_action_score", p.CallToActionScore},
		{"persuasion_effectiveness_score", p.PersuasionEffectivenessScore},
		{"user_intent_match_score", p.UserIntentMatchScore},
		{"content_value_score", p.ContentValueScore},
		{"readability_score", p.ReadabilityScore},
	}
	for _, s := range scores {
		if err := checkScore(k.Name(), s.field, s.value, 1, 10); err != nil {
			return nil, err
		}
	}

	return &models.ScriptAnalysis{
		VideoID:                      vc.Video.VideoID,
		ChannelCode:                  vc.Video.ChannelCode,
		AnalysisTimestamp:            ts,
		ScriptQualityScore:           p.ScriptQualityScore,
		HookEffectivenessScore:       p.HookEffectivenessScore,
		CallToActionScore:            p.CallToActionScore,
		PersuasionEffectivenessScore: p.PersuasionEffectivenessScore,
		UserIntentMatchScore:         p.UserIntentMatchScore,
		ContentValueScore:            p.ContentValueScore,
		ReadabilityScore:             p.ReadabilityScore,
		PersuasionTechniques:         orEmpty(p.PersuasionTechniques),
		KeyStrengths:                 orEmpty(p.KeyStrengths),
		ImprovementAreas:             orEmpty(p.ImprovementAreas),
		TargetAudience:               p.TargetAudience,
		IdentifiedIntent:             p.IdentifiedIntent,
		HasClearIntro:                boolOrWarn(k.Name(), "has_clear_intro", p.HasClearIntro),
		HasClearCTA:                  boolOrWarn(k.Name(), "has_clear_cta", p.HasClearCTA),
		ProblemSolutionStructure:     boolOrWarn(k.Name(), "problem_solution_structure", p.ProblemSolutionStructure),
	}, nil
}
