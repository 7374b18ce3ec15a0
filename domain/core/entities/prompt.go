package entities

import "recruiter-backend/domain/core/valueobjects"

// PromptContent is the document body of a prompt version. Prompts are leaf
// entities: they reference nothing, but interview configurations and job
// steps reference them.
type PromptContent struct {
	Text        string  `json:"text" validate:"required"`
	Description string  `json:"description,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty" validate:"gte=0,lte=2"`
}

// References implements Content; prompts have no outgoing references
func (c *PromptContent) References() []valueobjects.Reference {
	return nil
}

// Repin implements Content; nothing to repin on a leaf
func (c *PromptContent) Repin(valueobjects.EntityKey, int) bool {
	return false
}
