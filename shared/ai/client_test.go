package ai

import (
	"errors"
	"testing"

	"insight-stack/shared/analysis"

	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantFatal bool
	}{
		{"unauthorized", genai.APIError{Code: 401, Message: "unauthorized"}, true},
		{"forbidden", genai.APIError{Code: 403, Message: "forbidden"}, true},
		{"throttled", genai.APIError{Code: 429, Message: "rate limited"}, false},
		{"server error", genai.APIError{Code: 503, Message: "unavailable"}, false},
		{"bad API key message", errors.New("API key not valid"), true},
		{"quota message", errors.New("quota exceeded for project"), true},
		{"plain timeout", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := classify("generate content", tt.err)
			if pe.Fatal != tt.wantFatal {
				t.Errorf("Fatal = %v, want %v", pe.Fatal, tt.wantFatal)
			}
			if tt.wantFatal != analysis.IsFatal(pe) {
				t.Errorf("IsFatal disagrees with classification")
			}
			if analysis.IsRetryable(pe) == tt.wantFatal {
				t.Errorf("retryability should be the inverse of fatality")
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain JSON untouched", `{"score": 5}`, `{"score": 5}`},
		{"json fence", "```json\n{\"score\": 5}\n```", `{"score": 5}`},
		{"bare fence", "```\n{\"score\": 5}\n```", `{"score": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
