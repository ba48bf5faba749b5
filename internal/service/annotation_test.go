package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"annoforge/internal/cache"
	"annoforge/internal/config"
	"annoforge/internal/domain"
	"annoforge/internal/dto"
	"annoforge/internal/repository"
	"annoforge/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, dir string) AnnotationService {
	t.Helper()
	cfg := &config.Config{
		Generation: config.GenerationConfig{NumWords: 1000, NumQuestions: 10},
		Session:    config.SessionConfig{Store: config.SessionStoreMemory, TTL: time.Hour},
	}
	store := NewSessionStore(cache.NewMemoryCache(), cfg.Session.TTL)
	repo := repository.NewFileRecordRepository(dir)
	return NewAnnotationService(store, repo, validation.NewValidator(), cfg)
}

func TestAnnotationService_FullFlow(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	ctx := context.Background()
	start := time.Now()

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageStart), created.Stage)
	id := created.SessionID

	resp, err := svc.SetTopic(ctx, id, "a medical record")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageTopicEntered), resp.Stage)

	resp, err = svc.SetCategories(ctx, id, []string{"Names", "Dates", "Diagnoses", "Addresses"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageCategoriesValid), resp.Stage)
	assert.Contains(t, resp.ArticlePrompt, "a medical record")
	assert.Contains(t, resp.ArticlePrompt, `"Diagnoses": "string[]"`)

	resp, err = svc.SetArticleData(ctx, id,
		`{"article_text": "...", "sensitive_category_to_instances": {"Names": ["John"]}}`)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageArticleDataValid), resp.Stage)
	assert.Contains(t, resp.QAPrompt, "Generate 10 interesting question and answer pairs")
	assert.JSONEq(t, `{"Names":["John"]}`, string(resp.SensitiveIndex))

	resp, err = svc.SetQAPairs(ctx, id, `[{"question_text":"Q1","answer_text":"A1"}]`)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageAnnotating), resp.Stage)
	require.Len(t, resp.EditedQAs, 1)
	assert.Empty(t, resp.EditedQAs[0].CompletenessKeywords)

	resp, err = svc.UpdateAnnotations(ctx, id, []dto.AnnotatedQARow{{
		QuestionText:                "Q1",
		AnswerText:                  "A1 without names",
		CompletenessKeywords:        "treatment",
		RelevantSensitiveCategories: "Names",
	}})
	require.NoError(t, err)
	assert.Equal(t, "A1 without names", resp.EditedQAs[0].AnswerText)

	resp, err = svc.SetMetadata(ctx, id, map[string]interface{}{"LLM": "gpt-x"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageMetadataValid), resp.Stage)

	submitted, err := svc.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageSaved), submitted.Stage)
	assert.Regexp(t, regexp.MustCompile(`^annotated-synthetic-article\d+\.json$`), submitted.FileName)

	// The saved file parses and carries the submitted metadata plus a
	// numeric created_at after the test's start time.
	written, err := os.ReadFile(filepath.Join(dir, submitted.FileName))
	require.NoError(t, err)
	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(written, &record))
	metadata := record["metadata"].(map[string]interface{})
	assert.Equal(t, "gpt-x", metadata["LLM"])
	createdAt, ok := metadata["created_at"].(float64)
	require.True(t, ok, "created_at must be numeric")
	assert.GreaterOrEqual(t, int64(createdAt), start.Unix())

	edited := record["edited_qas"].([]interface{})
	require.Len(t, edited, 1)
	assert.Equal(t, "A1 without names", edited[0].(map[string]interface{})["answer_text"])
}

func TestAnnotationService_CategoryGate(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	ctx := context.Background()

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := created.SessionID

	_, err = svc.SetTopic(ctx, id, "a criminal record")
	require.NoError(t, err)

	// Three unique categories: the validator fails and nothing downstream
	// becomes available.
	_, err = svc.SetCategories(ctx, id, []string{"A", "B", "C"})
	require.Error(t, err)
	var validationErrs domain.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	assert.Contains(t, validationErrs[0].Message, "at least 4")

	state, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageTopicEntered), state.Stage)
	assert.Empty(t, state.ArticlePrompt)

	// The article step is still gated off.
	_, err = svc.SetArticleData(ctx, id, `{"article_text":"t","sensitive_category_to_instances":{}}`)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeStageViolation, domainErr.Code)
}

func TestAnnotationService_EmptyTopicRejected(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	ctx := context.Background()

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	_, err = svc.SetTopic(ctx, created.SessionID, "   ")
	var validationErrs domain.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	state, err := svc.GetSession(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageStart), state.Stage)
}

func TestAnnotationService_ResubmitSameStep(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	ctx := context.Background()

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := created.SessionID

	_, err = svc.SetTopic(ctx, id, "a medical record")
	require.NoError(t, err)
	_, err = svc.SetCategories(ctx, id, []string{"Names", "Dates", "Diagnoses", "Addresses"})
	require.NoError(t, err)

	// Correcting the categories re-runs the same validator; the stage does
	// not roll back and the prompt reflects the new input.
	resp, err := svc.SetCategories(ctx, id, []string{"Names", "Dates", "Diagnoses", "Addresses", "Emails"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StageCategoriesValid), resp.Stage)
	assert.Contains(t, resp.ArticlePrompt, `"Emails": "string[]"`)
}

func TestAnnotationService_SubmitRequiresMetadata(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	ctx := context.Background()

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := created.SessionID

	_, err = svc.SetTopic(ctx, id, "a medical record")
	require.NoError(t, err)
	_, err = svc.SetCategories(ctx, id, []string{"Names", "Dates", "Diagnoses", "Addresses"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, id)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeStageViolation, domainErr.Code)
}

func TestAnnotationService_TerminalSession(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	id := created.SessionID

	_, err = svc.SetTopic(ctx, id, "a medical record")
	require.NoError(t, err)
	_, err = svc.SetCategories(ctx, id, []string{"Names", "Dates", "Diagnoses", "Addresses"})
	require.NoError(t, err)
	_, err = svc.SetArticleData(ctx, id, `{"article_text":"t","sensitive_category_to_instances":{}}`)
	require.NoError(t, err)
	_, err = svc.SetQAPairs(ctx, id, `[{"question_text":"Q","answer_text":"A"}]`)
	require.NoError(t, err)
	_, err = svc.SetMetadata(ctx, id, map[string]interface{}{"LLM": "gpt-x"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, id)
	require.NoError(t, err)

	// The record is immutable after the write: no step runs anymore.
	_, err = svc.SetTopic(ctx, id, "another topic")
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeStageViolation, domainErr.Code)

	_, err = svc.Submit(ctx, id)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeStageViolation, domainErr.Code)
}

func TestAnnotationService_UnknownSession(t *testing.T) {
	svc := newTestService(t, t.TempDir())

	_, err := svc.GetSession(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeSessionNotFound, domainErr.Code)
}

func TestAnnotationService_ExportRecords(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)

	out, err := svc.ExportRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "annotated-synthetic-article7.json"),
		[]byte(`{"metadata":{"LLM":"gpt-x"}}`), 0o644))

	out, err = svc.ExportRecords(context.Background())
	require.NoError(t, err)
	var exported []map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &exported))
	require.Len(t, exported, 1)
}
