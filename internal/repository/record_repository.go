package repository

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"annoforge/internal/domain"
)

// RecordFilePrefix is the substring identifying annotated-record files in
// the data directory. Both the writer and the aggregator key off it, and it
// matches the naming of data sets produced by earlier versions of this tool.
const RecordFilePrefix = "annotated-synthetic-article"

// suffixBound is the exclusive upper bound of the random filename suffix.
const suffixBound = 10000

// RecordRepository persists finished annotated records and aggregates the
// existing ones.
type RecordRepository interface {
	// Save writes the record to a new file and returns the filename.
	Save(record *domain.AnnotatedRecord) (string, error)
	// ExportAll returns every saved record as a single JSON array (UTF-8).
	ExportAll() ([]byte, error)
}

// FileRecordRepository stores one JSON file per record in a flat directory.
type FileRecordRepository struct {
	dir string

	// suffix produces the numeric filename suffix; injectable for tests.
	// The default keeps the historical random naming, so collisions are
	// possible and silently overwrite (see DESIGN.md).
	suffix func() int
}

// NewFileRecordRepository creates a repository over the given directory.
func NewFileRecordRepository(dir string) *FileRecordRepository {
	return &FileRecordRepository{
		dir:    dir,
		suffix: func() int { return rand.Intn(suffixBound) },
	}
}

// WithSuffixFunc overrides the filename-suffix generator.
func (r *FileRecordRepository) WithSuffixFunc(suffix func() int) *FileRecordRepository {
	r.suffix = suffix
	return r
}

// Save serializes the record and writes it to
// annotated-synthetic-article<N>.json in the data directory.
func (r *FileRecordRepository) Save(record *domain.AnnotatedRecord) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", domain.NewInternalError("failed to serialize record", err)
	}
	name := fmt.Sprintf("%s%d.json", RecordFilePrefix, r.suffix())
	if err := os.WriteFile(filepath.Join(r.dir, name), data, 0o644); err != nil {
		return "", domain.NewStorageError("failed to write record file", err)
	}
	return name, nil
}

// ExportAll scans the data directory's immediate entries for record files,
// parses each one and returns them as a single JSON array. A file that no
// longer parses fails the whole export, naming the offender.
func (r *FileRecordRepository) ExportAll() ([]byte, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, domain.NewStorageError("failed to read data directory", err)
	}

	records := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), RecordFilePrefix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			return nil, domain.NewStorageError(
				fmt.Sprintf("failed to read record file %s", entry.Name()), err)
		}
		if !json.Valid(data) {
			return nil, domain.NewStorageError(
				fmt.Sprintf("record file %s is not valid JSON", entry.Name()), nil)
		}
		records = append(records, json.RawMessage(data))
	}

	out, err := json.Marshal(records)
	if err != nil {
		return nil, domain.NewInternalError("failed to serialize export", err)
	}
	return out, nil
}
