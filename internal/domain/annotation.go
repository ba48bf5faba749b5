package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// MinCategories and MaxCategories bound the number of distinct
	// sensitive-information categories a user may define.
	MinCategories = 4
	MaxCategories = 7
)

// CategorySet is an ordered list of sensitive-information category labels.
// It is built from raw user input with NewCategorySet and is immutable once
// validated.
type CategorySet []string

// NewCategorySet trims every entry, drops empty strings and removes
// duplicates, preserving first-seen order.
func NewCategorySet(raw []string) CategorySet {
	seen := make(map[string]struct{}, len(raw))
	set := make(CategorySet, 0, len(raw))
	for _, entry := range raw {
		label := strings.TrimSpace(entry)
		if label == "" {
			continue
		}
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		set = append(set, label)
	}
	return set
}

// Validate checks the category-count bound.
func (c CategorySet) Validate() error {
	if len(c) < MinCategories {
		return ValidationErrors{NewFieldError("categories",
			fmt.Sprintf("You must choose at least %d categories", MinCategories))}
	}
	if len(c) > MaxCategories {
		return ValidationErrors{NewFieldError("categories",
			fmt.Sprintf("You must choose at most %d categories", MaxCategories))}
	}
	return nil
}

// CategoryEntry is one label in the sensitive-data index. Instances holds the
// typed view when the pasted value was a list of strings; any other value
// shape is tolerated and carried through raw.
type CategoryEntry struct {
	Label     string
	Instances []string
	raw       json.RawMessage
}

// NewCategoryEntry builds a typed entry (used when constructing records in
// code rather than from a paste).
func NewCategoryEntry(label string, instances []string) CategoryEntry {
	return CategoryEntry{Label: label, Instances: instances}
}

// CategoryInstances is the ordered label -> instances association pasted as
// part of the article data. Key order is preserved across a JSON round trip.
type CategoryInstances []CategoryEntry

// Labels returns the labels in paste order.
func (ci CategoryInstances) Labels() []string {
	labels := make([]string, len(ci))
	for i, e := range ci {
		labels[i] = e.Label
	}
	return labels
}

// UnmarshalJSON decodes a JSON object token by token so that key order
// survives. Values are kept permissive: a list of strings gets the typed
// Instances view, anything else only the raw bytes.
func (ci *CategoryInstances) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*ci = nil
		return nil
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("sensitive_category_to_instances: expected JSON object, got %v", tok)
	}
	entries := make(CategoryInstances, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("sensitive_category_to_instances: unexpected key token %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		entry := CategoryEntry{Label: key, raw: raw}
		var instances []string
		if err := json.Unmarshal(raw, &instances); err == nil {
			entry.Instances = instances
		}
		entries = append(entries, entry)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*ci = entries
	return nil
}

// MarshalJSON re-emits the entries as a JSON object in their original order,
// preferring the raw value so non-list shapes round-trip untouched.
func (ci CategoryInstances) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range ci {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if e.raw != nil {
			buf.Write(e.raw)
			continue
		}
		value, err := json.Marshal(e.Instances)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type jsonField struct {
	name string
	raw  json.RawMessage
}

// ArticleData is the parsed result of the article-generation paste. Beyond
// the two required fields, unknown top-level keys are allowed; they are kept
// verbatim (in paste order) so the persisted record matches the paste.
type ArticleData struct {
	ArticleText         string
	SensitiveCategories CategoryInstances

	fields []jsonField
}

// NewArticleData builds article data from typed values.
func NewArticleData(text string, categories CategoryInstances) *ArticleData {
	return &ArticleData{ArticleText: text, SensitiveCategories: categories}
}

// UnmarshalJSON walks the top-level object preserving field order. The two
// known fields also populate the typed view; decoding of either is lenient
// (the validator only requires key presence).
func (a *ArticleData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("article data: expected JSON object, got %v", tok)
	}
	a.fields = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("article data: unexpected key token %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		a.fields = append(a.fields, jsonField{name: key, raw: raw})
		switch key {
		case "article_text":
			// Non-string values are tolerated; the typed view stays empty.
			_ = json.Unmarshal(raw, &a.ArticleText)
		case "sensitive_category_to_instances":
			_ = json.Unmarshal(raw, &a.SensitiveCategories)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON re-emits the pasted object verbatim when it exists, otherwise
// builds one from the typed fields.
func (a ArticleData) MarshalJSON() ([]byte, error) {
	if a.fields != nil {
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, f := range a.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(f.name)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(f.raw)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return json.Marshal(&struct {
		ArticleText         string            `json:"article_text"`
		SensitiveCategories CategoryInstances `json:"sensitive_category_to_instances"`
	}{
		ArticleText:         a.ArticleText,
		SensitiveCategories: a.SensitiveCategories,
	})
}

// QAPair is a single generated question/answer pair.
type QAPair struct {
	QuestionText string `json:"question_text"`
	AnswerText   string `json:"answer_text"`
}

// AnnotatedQAPair is a QAPair after manual scrubbing, extended with the two
// annotation fields filled in by the user.
type AnnotatedQAPair struct {
	QAPair
	CompletenessKeywords        string `json:"completeness_keywords"`
	RelevantSensitiveCategories string `json:"relevant_sensitive_categories"`
}

// NewAnnotatedQAPairs seeds one editable row per generated pair, with the
// annotation fields initialized empty.
func NewAnnotatedQAPairs(pairs []QAPair) []AnnotatedQAPair {
	rows := make([]AnnotatedQAPair, len(pairs))
	for i, p := range pairs {
		rows[i] = AnnotatedQAPair{QAPair: p}
	}
	return rows
}

// Metadata is the free-form submission metadata. The only required key is
// "LLM"; everything else passes through unchanged.
type Metadata map[string]interface{}

// Validate requires a truthy LLM entry.
func (m Metadata) Validate() error {
	if !truthy(m["LLM"]) {
		return ValidationErrors{NewFieldError("LLM", "You must provide the LLM name")}
	}
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

// WithCreatedAt returns a copy of the metadata stamped with the submission
// time as a numeric Unix timestamp.
func (m Metadata) WithCreatedAt(t time.Time) Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out["created_at"] = t.Unix()
	return out
}

// AnnotatedRecord is the final persisted unit. It is created once at
// submission and never mutated after the write.
type AnnotatedRecord struct {
	ArticleData *ArticleData      `json:"article_data"`
	QAs         []QAPair          `json:"qas"`
	EditedQAs   []AnnotatedQAPair `json:"edited_qas"`
	Metadata    Metadata          `json:"metadata"`
}

// Validate checks that the record carries every section the workflow
// collects.
func (r *AnnotatedRecord) Validate() error {
	if r.ArticleData == nil {
		return NewInvalidInputError("record is missing article data")
	}
	if len(r.QAs) == 0 {
		return NewInvalidInputError("record is missing Q&A pairs")
	}
	if len(r.EditedQAs) == 0 {
		return NewInvalidInputError("record is missing edited Q&A pairs")
	}
	if r.Metadata == nil {
		return NewInvalidInputError("record is missing metadata")
	}
	return nil
}
