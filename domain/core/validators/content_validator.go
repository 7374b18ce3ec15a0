package validators

import (
	"encoding/json"
	"fmt"

	domainconfig "recruiter-backend/domain/config"
	"recruiter-backend/domain/core/entities"
	"recruiter-backend/domain/core/valueobjects"
	apperrors "recruiter-backend/pkg/errors"
	"recruiter-backend/pkg/utils"
)

// ContentValidator checks content documents before any store interaction.
// A document that fails here never reaches persistence.
type ContentValidator struct {
	limits *domainconfig.DomainConfig
}

// NewContentValidator creates a content validator with default limits
func NewContentValidator() *ContentValidator {
	return NewContentValidatorWithConfig(nil)
}

// NewContentValidatorWithConfig creates a content validator with the given
// limits. Nil falls back to the defaults.
func NewContentValidatorWithConfig(limits *domainconfig.DomainConfig) *ContentValidator {
	if limits == nil {
		limits = domainconfig.DefaultDomainConfig()
	}
	return &ContentValidator{limits: limits}
}

// Validate decodes and validates a raw content document for the given kind
func (v *ContentValidator) Validate(kind valueobjects.Kind, raw json.RawMessage) error {
	if len(raw) == 0 {
		return apperrors.NewValidationError("content is required")
	}
	if max := v.limits.MaxContentBytes; max > 0 && len(raw) > max {
		return apperrors.NewValidationError(
			fmt.Sprintf("content exceeds %d bytes", max))
	}

	doc, err := entities.DecodeContent(kind, raw)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	if err := utils.ValidateStruct(doc); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	refs := doc.References()
	if max := v.limits.MaxReferencesPerDocument; max > 0 && len(refs) > max {
		return apperrors.NewValidationError(
			fmt.Sprintf("document carries %d references, limit is %d", len(refs), max))
	}
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			return apperrors.NewValidationError(err.Error())
		}
	}

	if tmpl, ok := doc.(*entities.TemplateContent); ok {
		if err := validateTemplateStructure(tmpl); err != nil {
			return err
		}
	}
	if q, ok := doc.(*entities.QuestionContent); ok {
		if err := validateQuestionStructure(q); err != nil {
			return err
		}
	}

	return nil
}

// validateTemplateStructure enforces the structural rules a template must
// satisfy: unique section orders, unique question orders per section, and
// question references pointing at the question family.
func validateTemplateStructure(tmpl *entities.TemplateContent) error {
	sectionOrders := make(map[int]bool, len(tmpl.Sections))
	for _, section := range tmpl.Sections {
		if sectionOrders[section.Order] {
			return apperrors.NewValidationError(
				fmt.Sprintf("duplicate section order %d", section.Order))
		}
		sectionOrders[section.Order] = true

		slotOrders := make(map[int]bool, len(section.Questions))
		for _, slot := range section.Questions {
			if slotOrders[slot.Order] {
				return apperrors.NewValidationError(
					fmt.Sprintf("duplicate question order %d in section %q", slot.Order, section.Title))
			}
			slotOrders[slot.Order] = true

			if slot.Question.Kind != valueobjects.KindQuestionnaireQuestion {
				return apperrors.NewValidationError(
					fmt.Sprintf("section %q slot %d must reference a questionnaire question, got %q",
						section.Title, slot.Order, slot.Question.Kind))
			}
		}
	}
	return nil
}

// validateQuestionStructure enforces option slot rules on a question
func validateQuestionStructure(q *entities.QuestionContent) error {
	needsOptions := q.Type == entities.QuestionTypeSingleChoice || q.Type == entities.QuestionTypeMultiChoice
	if needsOptions && len(q.Options) == 0 {
		return apperrors.NewValidationError(
			fmt.Sprintf("%s questions require at least one option", q.Type))
	}

	slotOrders := make(map[int]bool, len(q.Options))
	for _, slot := range q.Options {
		if slotOrders[slot.Order] {
			return apperrors.NewValidationError(
				fmt.Sprintf("duplicate option order %d", slot.Order))
		}
		slotOrders[slot.Order] = true

		if slot.Option.Kind != valueobjects.KindQuestionnaireOption {
			return apperrors.NewValidationError(
				fmt.Sprintf("option slot %d must reference a questionnaire option, got %q", slot.Order, slot.Option.Kind))
		}
	}
	return nil
}
