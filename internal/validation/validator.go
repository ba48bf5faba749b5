package validation

import (
	"encoding/json"
	"regexp"
	"strings"

	"annoforge/internal/domain"
)

// Validator provides request validation functionality. Every method reports
// a specific user-facing message per failure and never panics on malformed
// input; callers must not advance the flow when errors are returned.
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateTopic checks the free-text topic entered at the first step.
func (v *Validator) ValidateTopic(topic string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(topic) == "" {
		errors = append(errors, domain.NewFieldError("topic", "You must provide a topic"))
	}
	return errors
}

// ValidateCategories normalizes the raw category rows (trim, drop empty,
// dedupe) and enforces the 4..7 bound. The normalized set is returned only
// when validation passes.
func (v *Validator) ValidateCategories(raw []string) (domain.CategorySet, domain.ValidationErrors) {
	set := domain.NewCategorySet(raw)
	if err := set.Validate(); err != nil {
		return nil, err.(domain.ValidationErrors)
	}
	return set, nil
}

// ValidateArticleData parses the pasted article JSON. It requires a valid
// JSON document containing the article_text and
// sensitive_category_to_instances keys; value shapes are not checked and
// unknown extra keys pass through.
func (v *Validator) ValidateArticleData(raw string) (*domain.ArticleData, domain.ValidationErrors) {
	var probe interface{}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, domain.ValidationErrors{
			domain.NewFieldError("article_data", "You must provide a valid JSON here"),
		}
	}

	obj, ok := probe.(map[string]interface{})
	if !ok {
		// Valid JSON but not an object: neither required key can be present.
		return nil, domain.ValidationErrors{
			domain.NewFieldError("article_data", "You must provide an article text"),
		}
	}
	if _, ok := obj["article_text"]; !ok {
		return nil, domain.ValidationErrors{
			domain.NewFieldError("article_data", "You must provide an article text"),
		}
	}
	if _, ok := obj["sensitive_category_to_instances"]; !ok {
		return nil, domain.ValidationErrors{
			domain.NewFieldError("article_data", "You must provide a sensitive_category_to_instances mapping"),
		}
	}

	var data domain.ArticleData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, domain.ValidationErrors{
			domain.NewFieldError("article_data", "You must provide a valid JSON here"),
		}
	}
	return &data, nil
}

// ValidateQAData parses the pasted Q&A JSON. The document must be a JSON
// list whose every element carries both question_text and answer_text keys.
// Non-string values are tolerated; they are rendered into the pair as their
// raw JSON text.
func (v *Validator) ValidateQAData(raw string) ([]domain.QAPair, domain.ValidationErrors) {
	var probe interface{}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, domain.ValidationErrors{
			domain.NewFieldError("qa_data", "You must provide a valid JSON here"),
		}
	}
	if _, ok := probe.([]interface{}); !ok {
		return nil, domain.ValidationErrors{
			domain.NewFieldError("qa_data", "You must provide a list of Q&A pairs"),
		}
	}
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, domain.ValidationErrors{
			domain.NewFieldError("qa_data", "You must provide a list of Q&A pairs"),
		}
	}

	missingKeys := domain.ValidationErrors{
		domain.NewFieldError("qa_data",
			`Every Q&A pair must have a "question_text" and an "answer_text" entry`),
	}
	pairs := make([]domain.QAPair, 0, len(elements))
	for _, elementRaw := range elements {
		var element map[string]json.RawMessage
		if err := json.Unmarshal(elementRaw, &element); err != nil {
			return nil, missingKeys
		}
		question, hasQuestion := element["question_text"]
		answer, hasAnswer := element["answer_text"]
		if !hasQuestion || !hasAnswer {
			return nil, missingKeys
		}
		pairs = append(pairs, domain.QAPair{
			QuestionText: rawString(question),
			AnswerText:   rawString(answer),
		})
	}
	return pairs, nil
}

// rawString decodes a JSON value as a string, falling back to its literal
// JSON text for non-string values.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ValidateMetadata checks the submission metadata for a truthy LLM entry.
// Extra fields pass through unchanged.
func (v *Validator) ValidateMetadata(metadata domain.Metadata) domain.ValidationErrors {
	if err := metadata.Validate(); err != nil {
		return err.(domain.ValidationErrors)
	}
	return nil
}

// ValidateSessionID checks the session path parameter.
func (v *Validator) ValidateSessionID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("session_id"))
	} else if !isValidULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("session_id", id))
	}
	return errors
}

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	// ULID is 26 characters long, base32 encoded
	if len(s) != 26 {
		return false
	}
	// Check if all characters are valid base32 (Crockford's Base32)
	validULID := regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	return validULID.MatchString(s)
}
