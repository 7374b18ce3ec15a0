package valueobjects

import "fmt"

// Kind identifies an entity family. Every versioned entity belongs to exactly
// one family; the versioning machinery is shared, the content schema is not.
type Kind string

const (
	KindJobPosting             Kind = "job-posting"
	KindJobStep                Kind = "job-step"
	KindInterviewConfiguration Kind = "interview-configuration"
	KindPrompt                 Kind = "prompt"
	KindQuestionnaireTemplate  Kind = "questionnaire-template"
	KindQuestionnaireQuestion  Kind = "questionnaire-question"
	KindQuestionnaireOption    Kind = "questionnaire-option"
)

// AllKinds lists every known entity family
var AllKinds = []Kind{
	KindJobPosting,
	KindJobStep,
	KindInterviewConfiguration,
	KindPrompt,
	KindQuestionnaireTemplate,
	KindQuestionnaireQuestion,
	KindQuestionnaireOption,
}

// ParseKind validates a raw kind string
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown entity kind: %q", raw)
	}
	return k, nil
}

// IsValid reports whether the kind is a known entity family
func (k Kind) IsValid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer
func (k Kind) String() string {
	return string(k)
}
