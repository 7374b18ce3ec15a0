package entities

import "recruiter-backend/domain/core/valueobjects"

// TemplateContent is the richest composite: a questionnaire template owns an
// ordered list of sections; sections are structural (they carry a UUID and an
// order, not an independent version lineage) and hold ordered question slots.
// Each slot references an independently versioned question.
type TemplateContent struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description,omitempty"`
	Sections    []Section `json:"sections,omitempty" validate:"dive"`
}

// Section is a structural container inside a template
type Section struct {
	ID          string         `json:"id" validate:"required"`
	Order       int            `json:"order" validate:"gte=0"`
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description,omitempty"`
	Questions   []QuestionSlot `json:"questions,omitempty" validate:"dive"`
}

// QuestionSlot is one ordered question position inside a section
type QuestionSlot struct {
	Order    int                    `json:"order" validate:"gte=0"`
	Question valueobjects.Reference `json:"question"`
}

// SlotKey returns the structural address of this slot within its section
func (s QuestionSlot) SlotKey(sectionID string) valueobjects.SlotKey {
	return valueobjects.SlotKey{ParentID: sectionID, Order: s.Order}
}

// References implements Content
func (c *TemplateContent) References() []valueobjects.Reference {
	var refs []valueobjects.Reference
	for _, section := range c.Sections {
		for _, slot := range section.Questions {
			refs = append(refs, slot.Question)
		}
	}
	return refs
}

// Repin implements Content
func (c *TemplateContent) Repin(child valueobjects.EntityKey, newVersion int) bool {
	changed := false
	for si := range c.Sections {
		for qi := range c.Sections[si].Questions {
			changed = repinRef(&c.Sections[si].Questions[qi].Question, child, newVersion) || changed
		}
	}
	return changed
}

// Question types
const (
	QuestionTypeSingleChoice = "single-choice"
	QuestionTypeMultiChoice  = "multi-choice"
	QuestionTypeFreeText     = "free-text"
	QuestionTypeScale        = "scale"
)

// QuestionContent is one versioned question. Options are independently
// versioned entities embedded by reference, mirroring how questions embed
// into templates.
type QuestionContent struct {
	Text     string       `json:"text" validate:"required"`
	Type     string       `json:"type" validate:"required,oneof=single-choice multi-choice free-text scale"`
	Required bool         `json:"required,omitempty"`
	TraitKey string       `json:"trait_key,omitempty" validate:"max=100"`
	Weight   float64      `json:"weight,omitempty"`
	MediaURL string       `json:"media_url,omitempty"`
	Options  []OptionSlot `json:"options,omitempty" validate:"dive"`
}

// OptionSlot is one ordered option position inside a question
type OptionSlot struct {
	Order  int                    `json:"order" validate:"gte=0"`
	Option valueobjects.Reference `json:"option"`
}

// References implements Content
func (c *QuestionContent) References() []valueobjects.Reference {
	refs := make([]valueobjects.Reference, 0, len(c.Options))
	for _, slot := range c.Options {
		refs = append(refs, slot.Option)
	}
	return refs
}

// Repin implements Content
func (c *QuestionContent) Repin(child valueobjects.EntityKey, newVersion int) bool {
	changed := false
	for i := range c.Options {
		changed = repinRef(&c.Options[i].Option, child, newVersion) || changed
	}
	return changed
}

// OptionContent is one versioned answer option with its scoring fields
type OptionContent struct {
	Label     string  `json:"label" validate:"required,max=500"`
	IsCorrect bool    `json:"is_correct,omitempty"`
	Score     float64 `json:"score,omitempty"`
	Weight    float64 `json:"weight,omitempty"`
	MediaURL  string  `json:"media_url,omitempty"`
}

// References implements Content; options are leaves
func (c *OptionContent) References() []valueobjects.Reference {
	return nil
}

// Repin implements Content
func (c *OptionContent) Repin(valueobjects.EntityKey, int) bool {
	return false
}
