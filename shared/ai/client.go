package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"insight-stack/shared/analysis"
	"insight-stack/shared/config"

	"google.golang.org/genai"
)

// Client wraps the Gemini API behind the analysis package's AIService
// contract: one prompt in, one schema-enforced JSON payload out.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(cfg *config.AIConfig) (*Client, error) {
	ctx := context.Background()

	// Configure client with API key
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, model: cfg.Model}, nil
}

// Complete issues one structured-output request. The response MIME type and
// schema are enforced at the API level so the model cannot reply with prose.
// Failures are classified into the analysis error taxonomy; the caller owns
// any retry decision.
func (c *Client) Complete(ctx context.Context, prompt string, schema *genai.Schema) ([]byte, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
		// Lower temperature for consistent scoring
		Temperature: genai.Ptr[float32](0.3),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, classify("generate content", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, &analysis.ProviderError{
			Op:  "generate content",
			Err: errors.New("empty response, possibly content filtering"),
		}
	}

	return []byte(stripFences(text)), nil
}

// classify maps a Gemini transport failure onto the taxonomy: throttling,
// timeouts and 5xx are transient; auth and quota exhaustion are fatal and
// halt further admission for a batch job.
func classify(op string, err error) *analysis.ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return &analysis.ProviderError{Op: op, Fatal: true, Err: err}
		case apiErr.Code == http.StatusTooManyRequests:
			return &analysis.ProviderError{Op: op, Err: err}
		case apiErr.Code >= 500:
			return &analysis.ProviderError{Op: op, Err: err}
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "api key") || strings.Contains(msg, "quota") || strings.Contains(msg, "permission") {
		return &analysis.ProviderError{Op: op, Fatal: true, Err: err}
	}

	return &analysis.ProviderError{Op: op, Err: err}
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite the response MIME type.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
