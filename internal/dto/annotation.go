package dto

import "encoding/json"

// TopicRequest carries the topic entered at the first step.
// @Description Request body for setting the session topic
type TopicRequest struct {
	Topic string `json:"topic"`
}

// CategoriesRequest carries the raw category rows from the tabular editor.
// Entries may contain blanks, duplicates and whitespace padding; the server
// normalizes them.
type CategoriesRequest struct {
	Categories []string `json:"categories"`
}

// RawPayloadRequest carries text pasted back from the external LLM chat.
// @Description Request body for the article-data and Q&A-data steps
type RawPayloadRequest struct {
	Raw string `json:"raw"`
}

// QARow represents one generated question/answer pair in API responses.
type QARow struct {
	QuestionText string `json:"question_text"`
	AnswerText   string `json:"answer_text"`
}

// AnnotatedQARow represents one editable annotation row.
type AnnotatedQARow struct {
	QuestionText                string `json:"question_text"`
	AnswerText                  string `json:"answer_text"`
	CompletenessKeywords        string `json:"completeness_keywords"`
	RelevantSensitiveCategories string `json:"relevant_sensitive_categories"`
}

// AnnotationsRequest replaces the session's edited rows.
type AnnotationsRequest struct {
	EditedQAs []AnnotatedQARow `json:"edited_qas"`
}

// MetadataRequest carries the submission metadata form.
// @Description Metadata form; LLM is required, extra fields pass through
type MetadataRequest struct {
	Metadata map[string]interface{} `json:"metadata"`
}

// SessionResponse is the session's full visible state after any step. Fields
// are omitted until the stage that produces them has been reached.
type SessionResponse struct {
	SessionID      string                 `json:"session_id"`
	Stage          string                 `json:"stage"`
	Topic          string                 `json:"topic,omitempty"`
	Categories     []string               `json:"categories,omitempty"`
	ArticlePrompt  string                 `json:"article_prompt,omitempty"`
	QAPrompt       string                 `json:"qa_prompt,omitempty"`
	SensitiveIndex json.RawMessage        `json:"sensitive_index,omitempty"`
	QAs            []QARow                `json:"qas,omitempty"`
	EditedQAs      []AnnotatedQARow       `json:"edited_qas,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	SavedFile      string                 `json:"saved_file,omitempty"`
}

// SubmitResponse reports the terminal save.
type SubmitResponse struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
	FileName  string `json:"file_name"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}
