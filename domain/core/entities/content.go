package entities

import (
	"encoding/json"
	"fmt"

	"recruiter-backend/domain/core/valueobjects"
)

// Content is the behavior every family-specific document shares. The
// versioning engine never looks inside a document beyond this interface:
// it needs the outgoing references for cascade discovery, and a way to
// repin one of them when a referenced child gains a new version.
type Content interface {
	// References lists every outgoing reference, pinned or dynamic
	References() []valueobjects.Reference

	// Repin updates every reference that pins `child` to pin `newVersion`
	// instead, returning true when at least one reference changed
	Repin(child valueobjects.EntityKey, newVersion int) bool
}

// DecodeContent unmarshals a raw content document by entity kind
func DecodeContent(kind valueobjects.Kind, raw json.RawMessage) (Content, error) {
	var doc Content
	switch kind {
	case valueobjects.KindPrompt:
		doc = &PromptContent{}
	case valueobjects.KindInterviewConfiguration:
		doc = &InterviewConfigurationContent{}
	case valueobjects.KindJobStep:
		doc = &JobStepContent{}
	case valueobjects.KindJobPosting:
		doc = &JobPostingContent{}
	case valueobjects.KindQuestionnaireTemplate:
		doc = &TemplateContent{}
	case valueobjects.KindQuestionnaireQuestion:
		doc = &QuestionContent{}
	case valueobjects.KindQuestionnaireOption:
		doc = &OptionContent{}
	default:
		return nil, fmt.Errorf("no content schema for kind %q", kind)
	}

	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s content: %w", kind, err)
	}
	return doc, nil
}

// EncodeContent marshals a content document back to its stored form
func EncodeContent(doc Content) (json.RawMessage, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content: %w", err)
	}
	return raw, nil
}

// repinRef repins a single optional reference in place; nil-safe
func repinRef(ref *valueobjects.Reference, child valueobjects.EntityKey, newVersion int) bool {
	if ref == nil || !ref.PinsExactly(child) {
		return false
	}
	*ref = ref.Repin(newVersion)
	return true
}

// collectRef appends an optional reference; nil-safe
func collectRef(refs []valueobjects.Reference, ref *valueobjects.Reference) []valueobjects.Reference {
	if ref == nil {
		return refs
	}
	return append(refs, *ref)
}
