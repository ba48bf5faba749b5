package domain

import "time"

// Stage identifies how far a session has progressed through the annotation
// flow. Stages are strictly linear; there is no backward transition.
type Stage string

const (
	StageStart            Stage = "START"
	StageTopicEntered     Stage = "TOPIC_ENTERED"
	StageCategoriesValid  Stage = "CATEGORIES_VALID"
	StageArticleDataValid Stage = "ARTICLE_DATA_VALID"
	StageQADataValid      Stage = "QA_DATA_VALID"
	StageAnnotating       Stage = "ANNOTATING"
	StageMetadataValid    Stage = "METADATA_VALID"
	StageSaved            Stage = "SAVED"
)

var stageOrder = map[Stage]int{
	StageStart:            0,
	StageTopicEntered:     1,
	StageCategoriesValid:  2,
	StageArticleDataValid: 3,
	StageQADataValid:      4,
	StageAnnotating:       5,
	StageMetadataValid:    6,
	StageSaved:            7,
}

// Ordinal returns the stage's position in the flow; unknown stages sort
// before START.
func (s Stage) Ordinal() int {
	if ord, ok := stageOrder[s]; ok {
		return ord
	}
	return -1
}

// AtLeast reports whether s is other or any later stage.
func (s Stage) AtLeast(other Stage) bool {
	return s.Ordinal() >= other.Ordinal()
}

// Terminal reports whether the session is finished.
func (s Stage) Terminal() bool {
	return s == StageSaved
}

// Session is the in-progress annotation record plus its position in the
// flow. All collected inputs live here explicitly; nothing is kept in
// hidden rendering state.
type Session struct {
	ID            string            `json:"id"`
	Stage         Stage             `json:"stage"`
	Topic         string            `json:"topic,omitempty"`
	Categories    CategorySet       `json:"categories,omitempty"`
	ArticlePrompt string            `json:"article_prompt,omitempty"`
	ArticleData   *ArticleData      `json:"article_data,omitempty"`
	QAPrompt      string            `json:"qa_prompt,omitempty"`
	QAs           []QAPair          `json:"qas,omitempty"`
	EditedQAs     []AnnotatedQAPair `json:"edited_qas,omitempty"`
	Metadata      Metadata          `json:"metadata,omitempty"`
	SavedFile     string            `json:"saved_file,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewSession creates a fresh session at START.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Stage:     StageStart,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanRun reports whether the step that produces the given stage may run:
// its predecessor stage must have been reached and the session must not be
// finished. Re-running an already-passed step is allowed (the user
// re-submitting corrected input into the same field).
func (s *Session) CanRun(step Stage) bool {
	if s.Stage.Terminal() {
		return false
	}
	return s.Stage.Ordinal() >= step.Ordinal()-1
}

// Advance moves the session forward to the given stage. Re-running an
// earlier step never rolls the stage back.
func (s *Session) Advance(to Stage) {
	if to.Ordinal() > s.Stage.Ordinal() {
		s.Stage = to
	}
	s.UpdatedAt = time.Now()
}
