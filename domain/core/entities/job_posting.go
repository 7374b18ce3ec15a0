package entities

import "recruiter-backend/domain/core/valueobjects"

// JobPostingContent is the top of the composite chain: a posting plus the
// ordered pipeline of job step references a candidate walks through.
type JobPostingContent struct {
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty" validate:"max=255"`
	Remote      bool           `json:"remote,omitempty"`
	Steps       []JobStepSlot  `json:"steps,omitempty" validate:"dive"`
}

// JobStepSlot is one ordered position in a posting's pipeline
type JobStepSlot struct {
	Order int                    `json:"order" validate:"gte=0"`
	Step  valueobjects.Reference `json:"step"`
}

// References implements Content
func (c *JobPostingContent) References() []valueobjects.Reference {
	refs := make([]valueobjects.Reference, 0, len(c.Steps))
	for _, slot := range c.Steps {
		refs = append(refs, slot.Step)
	}
	return refs
}

// Repin implements Content
func (c *JobPostingContent) Repin(child valueobjects.EntityKey, newVersion int) bool {
	changed := false
	for i := range c.Steps {
		changed = repinRef(&c.Steps[i].Step, child, newVersion) || changed
	}
	return changed
}
