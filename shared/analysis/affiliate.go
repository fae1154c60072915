package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"insight-stack/internal/models"

	"google.golang.org/genai"
)

// maxAffiliateProducts caps how many ranked recommendations one run asks for.
const maxAffiliateProducts = 5

// affiliateKind recommends ranked affiliate products for the video content.
// Relevance is scored 1-10; conversion probability is a 0-1 fraction.
type affiliateKind struct{}

func (affiliateKind) Name() models.AnalysisKind { return models.KindAffiliate }

func (affiliateKind) RequiredInputs() []Input {
	return []Input{InputMetadata, InputTranscript}
}

func (affiliateKind) BuildPrompt(vc *models.VideoContext) string {
	return fmt.Sprintf(`Based on this YouTube video content in the Tech/Software niche, recommend the top %d most relevant affiliate products:

**TITLE:** %s

**DESCRIPTION:** %s

**TRANSCRIPT:** %s

Recommend specific products (never generic categories) from: SaaS/software
tools, online courses and education, tech hardware, developer tools and
services, business software.

relevance_score (1-10): 9-10 directly solves a problem discussed in the video,
7-8 highly relevant, 5-6 somewhat relevant, 1-4 loosely related.
conversion_probability (0-1): realistic likelihood a viewer converts; most
products belong in the 0.2-0.6 range. Order products from strongest to weakest
recommendation. Be honest about fit - forcing irrelevant products is worse
than recommending fewer.`,
		maxAffiliateProducts,
		vc.Video.Title,
		truncate(vc.Video.Description, 1000),
		truncate(*vc.Transcript, 10000),
	)
}

func (affiliateKind) ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"products": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_name":             stringSchema("Specific product name"),
						"product_category":         stringSchema("Product category"),
						"relevance_score":          scoreSchema("Relevance to the video content, 1-10"),
						"conversion_probability":   scoreSchema("Conversion likelihood, 0-1"),
						"recommendation_reasoning": stringSchema("2-3 sentences explaining the fit"),
						"where_to_mention":         stringSchema("Where in the video or description to mention it"),
						"mentioned_in_video":       boolSchema("Whether the product is already mentioned"),
						"amazon_asin":              stringSchema("ASIN if applicable, empty otherwise"),
						"price_range":              stringSchema("low/medium/high or a specific price"),
					},
					Required: []string{"product_name", "product_category", "relevance_score", "conversion_probability"},
				},
			},
		},
		Required: []string{"products"},
	}
}

type affiliatePayload struct {
	Products []struct {
		ProductName             string  `json:"product_name"`
		ProductCategory         string  `json:"product_category"`
		RelevanceScore          float64 `json:"relevance_score"`
		ConversionProbability   float64 `json:"conversion_probability"`
		RecommendationReasoning string  `json:"recommendation_reasoning"`
		WhereToMention          string  `json:"where_to_mention"`
		MentionedInVideo        *bool   `json:"mentioned_in_video"`
		AmazonASIN              string  `json:"amazon_asin"`
		PriceRange              string  `json:"price_range"`
	} `json:"products"`
}

func (k affiliateKind) ParseResponse(raw []byte, vc *models.VideoContext, ts time.Time) (models.Result, error) {
	var p affiliatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ValidationError{Kind: k.Name(), Field: "", Detail: fmt.Sprintf("response is not valid JSON: %v", err)}
	}
	if len(p.Products) == 0 {
		return nil, &ValidationError{Kind: k.Name(), Field: "products", Detail: "no products recommended"}
	}
	if len(p.Products) > maxAffiliateProducts {
		p.Products = p.Products[:maxAffiliateProducts]
	}

	res := &models.AffiliateAnalysis{
		VideoID:           vc.Video.VideoID,
		AnalysisTimestamp: ts,
	}
	for i, prod := range p.Products {
		field := fmt.Sprintf("products[%d]", i)
		if prod.ProductName == "" {
			return nil, &ValidationError{Kind: k.Name(), Field: field + ".product_name", Detail: "product name is empty"}
		}
		if err := checkScore(k.Name(), field+".relevance_score", prod.RelevanceScore, 1, 10); err != nil {
			return nil, err
		}
		if err := checkScore(k.Name(), field+".conversion_probability", prod.ConversionProbability, 0, 1); err != nil {
			return nil, err
		}
		res.Products = append(res.Products, models.ProductRecommendation{
			ProductRank:             int64(i + 1),
			ProductName:             prod.ProductName,
			ProductCategory:         prod.ProductCategory,
			RelevanceScore:          prod.RelevanceScore,
			ConversionProbability:   prod.ConversionProbability,
			RecommendationReasoning: prod.RecommendationReasoning,
			WhereToMention:          prod.WhereToMention,
			MentionedInVideo:        boolOrWarn(k.Name(), field+".mentioned_in_video", prod.MentionedInVideo),
			AmazonASIN:              prod.AmazonASIN,
			PriceRange:              prod.PriceRange,
		})
	}
	return res, nil
}
