package models

// RenderedPrompt is the output of rendering a template for a provider.
type RenderedPrompt struct {
	TemplateName string `json:"template_name"`
	Provider     string `json:"provider,omitempty"`
	Text         string `json:"text"`
}
