package entities

import "recruiter-backend/domain/core/valueobjects"

// Step participant values
const (
	ParticipantCandidate = "candidate"
	ParticipantRecruiter = "recruiter"
)

// JobStepContent is a reusable step inside a job posting's pipeline. A step
// can attach an interview configuration, a processing prompt, and a
// questionnaire template; each attachment is an independent reference that
// may be pinned or dynamic.
type JobStepContent struct {
	StepType             string `json:"step_type" validate:"required,max=100"`
	Participant          string `json:"participant" validate:"required,oneof=candidate recruiter"`
	ShowForCandidate     bool   `json:"show_for_candidate"`
	DisplayTitle         string `json:"display_title,omitempty" validate:"max=255"`
	DisplayContent       string `json:"display_content,omitempty"`
	ShowSpinner          bool   `json:"show_spinner,omitempty"`

	InterviewConfiguration *valueobjects.Reference `json:"interview_configuration,omitempty"`
	Prompt                 *valueobjects.Reference `json:"prompt,omitempty"`
	QuestionnaireTemplate  *valueobjects.Reference `json:"questionnaire_template,omitempty"`
}

// References implements Content
func (c *JobStepContent) References() []valueobjects.Reference {
	var refs []valueobjects.Reference
	refs = collectRef(refs, c.InterviewConfiguration)
	refs = collectRef(refs, c.Prompt)
	refs = collectRef(refs, c.QuestionnaireTemplate)
	return refs
}

// Repin implements Content
func (c *JobStepContent) Repin(child valueobjects.EntityKey, newVersion int) bool {
	changed := repinRef(c.InterviewConfiguration, child, newVersion)
	changed = repinRef(c.Prompt, child, newVersion) || changed
	changed = repinRef(c.QuestionnaireTemplate, child, newVersion) || changed
	return changed
}
