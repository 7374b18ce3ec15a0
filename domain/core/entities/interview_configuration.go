package entities

import "recruiter-backend/domain/core/valueobjects"

// InterviewConfigurationContent configures an AI interview flow: which prompt
// drives it and how the conversation behaves. The prompt reference may be
// pinned to a specific version or dynamic.
type InterviewConfigurationContent struct {
	Prompt             valueobjects.Reference `json:"prompt"`
	Voice              string                 `json:"voice,omitempty"`
	Language           string                 `json:"language,omitempty"`
	MaxDurationMinutes int                    `json:"max_duration_minutes,omitempty" validate:"gte=0,lte=180"`
	AllowRetry         bool                   `json:"allow_retry,omitempty"`
}

// References implements Content
func (c *InterviewConfigurationContent) References() []valueobjects.Reference {
	return []valueobjects.Reference{c.Prompt}
}

// Repin implements Content
func (c *InterviewConfigurationContent) Repin(child valueobjects.EntityKey, newVersion int) bool {
	return repinRef(&c.Prompt, child, newVersion)
}
