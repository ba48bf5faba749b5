package service

import (
	"context"
	"encoding/json"
	"time"

	"annoforge/internal/config"
	"annoforge/internal/domain"
	"annoforge/internal/dto"
	"annoforge/internal/logger"
	"annoforge/internal/prompt"
	"annoforge/internal/repository"
	"annoforge/internal/util"
	"annoforge/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// AnnotationService drives the annotation flow: one method per form step,
// each gated on the session having reached the step's predecessor stage.
// A failed validation leaves the session untouched.
type AnnotationService interface {
	CreateSession(ctx context.Context) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, id string) (*dto.SessionResponse, error)
	SetTopic(ctx context.Context, id, topic string) (*dto.SessionResponse, error)
	SetCategories(ctx context.Context, id string, categories []string) (*dto.SessionResponse, error)
	SetArticleData(ctx context.Context, id, raw string) (*dto.SessionResponse, error)
	SetQAPairs(ctx context.Context, id, raw string) (*dto.SessionResponse, error)
	UpdateAnnotations(ctx context.Context, id string, rows []dto.AnnotatedQARow) (*dto.SessionResponse, error)
	SetMetadata(ctx context.Context, id string, metadata map[string]interface{}) (*dto.SessionResponse, error)
	Submit(ctx context.Context, id string) (*dto.SubmitResponse, error)
	ExportRecords(ctx context.Context) ([]byte, error)
}

type annotationServiceImpl struct {
	sessions  SessionStore
	records   repository.RecordRepository
	validator *validation.Validator
	cfg       *config.Config

	exportGroup singleflight.Group
	now         func() time.Time
	newID       func() string
}

// NewAnnotationService creates the flow controller over the given session
// store and record repository.
func NewAnnotationService(
	sessions SessionStore,
	records repository.RecordRepository,
	validator *validation.Validator,
	cfg *config.Config,
) AnnotationService {
	return &annotationServiceImpl{
		sessions:  sessions,
		records:   records,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
		newID:     util.NewULID,
	}
}

func (s *annotationServiceImpl) CreateSession(ctx context.Context) (*dto.SessionResponse, error) {
	session := domain.NewSession(s.newID())
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	logger.Get().Info("Session created", zap.String("session_id", session.ID))
	return toSessionResponse(session), nil
}

func (s *annotationServiceImpl) GetSession(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// step loads the session, checks that the step producing `stage` is
// reachable, applies fn and persists the result. fn must only mutate the
// session when it returns nil.
func (s *annotationServiceImpl) step(ctx context.Context, id string, stage domain.Stage, name string, fn func(*domain.Session) error) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanRun(stage) {
		return nil, domain.NewStageViolationError(session.Stage, name)
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	session.Advance(stage)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *annotationServiceImpl) SetTopic(ctx context.Context, id, topic string) (*dto.SessionResponse, error) {
	session, err := s.step(ctx, id, domain.StageTopicEntered, "topic", func(session *domain.Session) error {
		if errs := s.validator.ValidateTopic(topic); len(errs) > 0 {
			return errs
		}
		session.Topic = topic
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *annotationServiceImpl) SetCategories(ctx context.Context, id string, categories []string) (*dto.SessionResponse, error) {
	session, err := s.step(ctx, id, domain.StageCategoriesValid, "categories", func(session *domain.Session) error {
		set, errs := s.validator.ValidateCategories(categories)
		if len(errs) > 0 {
			return errs
		}
		session.Categories = set
		session.ArticlePrompt = prompt.PromptBuilder{
			ArticleTopic:        session.Topic,
			SensitiveCategories: set,
			NumWords:            s.cfg.Generation.NumWords,
		}.GetPrompt()
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Get().Info("Categories accepted",
		zap.String("session_id", id),
		zap.Int("count", len(session.Categories)),
	)
	return toSessionResponse(session), nil
}

func (s *annotationServiceImpl) SetArticleData(ctx context.Context, id, raw string) (*dto.SessionResponse, error) {
	session, err := s.step(ctx, id, domain.StageArticleDataValid, "article_data", func(session *domain.Session) error {
		data, errs := s.validator.ValidateArticleData(raw)
		if len(errs) > 0 {
			return errs
		}
		session.ArticleData = data
		session.QAPrompt = prompt.BuildQAPrompt(data.ArticleText, s.cfg.Generation.NumQuestions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// SetQAPairs validates the pasted Q&A list and seeds the editable rows,
// moving the session straight into ANNOTATING.
func (s *annotationServiceImpl) SetQAPairs(ctx context.Context, id, raw string) (*dto.SessionResponse, error) {
	session, err := s.step(ctx, id, domain.StageQADataValid, "qa_pairs", func(session *domain.Session) error {
		pairs, errs := s.validator.ValidateQAData(raw)
		if len(errs) > 0 {
			return errs
		}
		session.QAs = pairs
		session.EditedQAs = domain.NewAnnotatedQAPairs(pairs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	session.Advance(domain.StageAnnotating)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *annotationServiceImpl) UpdateAnnotations(ctx context.Context, id string, rows []dto.AnnotatedQARow) (*dto.SessionResponse, error) {
	session, err := s.step(ctx, id, domain.StageAnnotating, "annotations", func(session *domain.Session) error {
		edited := make([]domain.AnnotatedQAPair, len(rows))
		for i, row := range rows {
			edited[i] = domain.AnnotatedQAPair{
				QAPair: domain.QAPair{
					QuestionText: row.QuestionText,
					AnswerText:   row.AnswerText,
				},
				CompletenessKeywords:        row.CompletenessKeywords,
				RelevantSensitiveCategories: row.RelevantSensitiveCategories,
			}
		}
		session.EditedQAs = edited
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *annotationServiceImpl) SetMetadata(ctx context.Context, id string, metadata map[string]interface{}) (*dto.SessionResponse, error) {
	session, err := s.step(ctx, id, domain.StageMetadataValid, "metadata", func(session *domain.Session) error {
		md := domain.Metadata(metadata)
		if errs := s.validator.ValidateMetadata(md); len(errs) > 0 {
			return errs
		}
		session.Metadata = md
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// Submit assembles the final record, stamps created_at and persists it. The
// session becomes terminal; no further step may run.
func (s *annotationServiceImpl) Submit(ctx context.Context, id string) (*dto.SubmitResponse, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanRun(domain.StageSaved) {
		return nil, domain.NewStageViolationError(session.Stage, "submit")
	}

	record := &domain.AnnotatedRecord{
		ArticleData: session.ArticleData,
		QAs:         session.QAs,
		EditedQAs:   session.EditedQAs,
		Metadata:    session.Metadata.WithCreatedAt(s.now()),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	fileName, err := s.records.Save(record)
	if err != nil {
		return nil, err
	}

	session.SavedFile = fileName
	session.Advance(domain.StageSaved)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	logger.Get().Info("Record saved",
		zap.String("session_id", id),
		zap.String("file", fileName),
	)
	return &dto.SubmitResponse{
		SessionID: session.ID,
		Stage:     string(session.Stage),
		FileName:  fileName,
	}, nil
}

// ExportRecords aggregates every saved record into one JSON array.
// Concurrent export requests are coalesced into a single directory scan.
func (s *annotationServiceImpl) ExportRecords(ctx context.Context) ([]byte, error) {
	data, err, _ := s.exportGroup.Do("export", func() (interface{}, error) {
		return s.records.ExportAll()
	})
	if err != nil {
		return nil, err
	}
	return data.([]byte), nil
}

func toSessionResponse(session *domain.Session) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		SessionID:     session.ID,
		Stage:         string(session.Stage),
		Topic:         session.Topic,
		Categories:    []string(session.Categories),
		ArticlePrompt: session.ArticlePrompt,
		QAPrompt:      session.QAPrompt,
		Metadata:      session.Metadata,
		SavedFile:     session.SavedFile,
	}
	if session.ArticleData != nil && len(session.ArticleData.SensitiveCategories) > 0 {
		if raw, err := json.Marshal(session.ArticleData.SensitiveCategories); err == nil {
			resp.SensitiveIndex = raw
		}
	}
	for _, qa := range session.QAs {
		resp.QAs = append(resp.QAs, dto.QARow{
			QuestionText: qa.QuestionText,
			AnswerText:   qa.AnswerText,
		})
	}
	for _, row := range session.EditedQAs {
		resp.EditedQAs = append(resp.EditedQAs, dto.AnnotatedQARow{
			QuestionText:                row.QuestionText,
			AnswerText:                  row.AnswerText,
			CompletenessKeywords:        row.CompletenessKeywords,
			RelevantSensitiveCategories: row.RelevantSensitiveCategories,
		})
	}
	return resp
}
