package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"annoforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(t *testing.T) *domain.AnnotatedRecord {
	t.Helper()
	var data domain.ArticleData
	require.NoError(t, json.Unmarshal(
		[]byte(`{"article_text":"t","sensitive_category_to_instances":{"Names":["John"]}}`), &data))
	return &domain.AnnotatedRecord{
		ArticleData: &data,
		QAs:         []domain.QAPair{{QuestionText: "Q1", AnswerText: "A1"}},
		EditedQAs: []domain.AnnotatedQAPair{{
			QAPair:                      domain.QAPair{QuestionText: "Q1", AnswerText: "A1 scrubbed"},
			CompletenessKeywords:        "k",
			RelevantSensitiveCategories: "Names",
		}},
		Metadata: domain.Metadata{"LLM": "gpt-x", "created_at": int64(1700000000)},
	}
}

func TestFileRecordRepository_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRecordRepository(dir)
	record := testRecord(t)

	name, err := repo.Save(record)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^annotated-synthetic-article\d+\.json$`), name)

	written, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	expected, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, string(expected), string(written))

	// The parsed file still matches the record structurally.
	var restored domain.AnnotatedRecord
	require.NoError(t, json.Unmarshal(written, &restored))
	assert.Equal(t, record.QAs, restored.QAs)
	assert.Equal(t, record.EditedQAs, restored.EditedQAs)
	assert.Equal(t, "gpt-x", restored.Metadata["LLM"])
}

func TestFileRecordRepository_SuffixInjection(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRecordRepository(dir).WithSuffixFunc(func() int { return 42 })

	name, err := repo.Save(testRecord(t))
	require.NoError(t, err)
	assert.Equal(t, "annotated-synthetic-article42.json", name)
}

func TestFileRecordRepository_ExportAll(t *testing.T) {
	dir := t.TempDir()
	next := 0
	repo := NewFileRecordRepository(dir).WithSuffixFunc(func() int { next++; return next })

	const k = 3
	for i := 0; i < k; i++ {
		_, err := repo.Save(testRecord(t))
		require.NoError(t, err)
	}
	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	out, err := repo.ExportAll()
	require.NoError(t, err)

	var exported []json.RawMessage
	require.NoError(t, json.Unmarshal(out, &exported))
	require.Len(t, exported, k)

	for i, raw := range exported {
		fileData, err := os.ReadFile(filepath.Join(dir,
			"annotated-synthetic-article"+strconv.Itoa(i+1)+".json"))
		require.NoError(t, err)
		assert.JSONEq(t, string(fileData), string(raw))
	}
}

func TestFileRecordRepository_ExportAll_Empty(t *testing.T) {
	repo := NewFileRecordRepository(t.TempDir())

	out, err := repo.ExportAll()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestFileRecordRepository_ExportAll_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRecordRepository(dir)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "annotated-synthetic-article1.json"), []byte("{broken"), 0o644))

	_, err := repo.ExportAll()
	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeStorageError, domainErr.Code)
}

func TestFileRecordRepository_ExportAll_MissingDir(t *testing.T) {
	repo := NewFileRecordRepository(filepath.Join(t.TempDir(), "nope"))

	_, err := repo.ExportAll()
	assert.Error(t, err)
}
