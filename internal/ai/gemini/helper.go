package gemini

import (
	"strings"

	"github.com/thomas-vilte/mateissue/internal/models"
	"google.golang.org/genai"
)

// extractUsage extracts usage metadata from the Gemini response
func extractUsage(resp *genai.GenerateContentResponse, model string) *models.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &models.TokenUsage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		Model:        model,
	}
}

// GetGenerateConfig returns the configuration for the model, enabling Thinking Mode if compatible.
func GetGenerateConfig(modelName string, responseType string, schema *genai.Schema) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     float32Ptr(0.3),
		MaxOutputTokens: int32(10000),
	}

	if responseType == "application/json" {
		config.ResponseMIMEType = "application/json"
		if schema != nil {
			config.ResponseJsonSchema = schema
		}
	}

	if strings.HasPrefix(modelName, "gemini-3") {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingLevel:   genai.ThinkingLevelHigh,
		}
	}

	return config
}

func float32Ptr(f float32) *float32 {
	return &f
}

// formatResponse joins the text parts of every candidate, skipping thoughts.
func formatResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
