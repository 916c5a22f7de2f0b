package domain

// Creative is one generated asset.
type Creative struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Format       string `json:"format"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Prompt       string `json:"prompt,omitempty"`
}

// GenerationRequest is what the wizard hands to the creative-generation service.
type GenerationRequest struct {
	SessionID       string           `json:"session_id,omitempty"`
	TemplateID      string           `json:"template_id"`
	CollectedInputs []CollectedInput `json:"collected_inputs"`
}

// ProductAnalysis is the structured summary returned by product ingestion.
type ProductAnalysis struct {
	URL         string   `json:"url"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Audience    string   `json:"audience,omitempty"`
	Features    []string `json:"features,omitempty"`
}
