package handler

import (
	"annoforge/internal/dto"
	"annoforge/internal/service"
	"annoforge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AnnotationHandler exposes the annotation flow over HTTP: one route per
// form step plus the aggregate export download.
type AnnotationHandler struct {
	service   service.AnnotationService
	validator *validation.Validator
}

// NewAnnotationHandler creates a new AnnotationHandler instance
func NewAnnotationHandler(service service.AnnotationService, validator *validation.Validator) *AnnotationHandler {
	return &AnnotationHandler{
		service:   service,
		validator: validator,
	}
}

// RegisterRoutes wires the annotation routes onto the given router group.
func (h *AnnotationHandler) RegisterRoutes(api fiber.Router) {
	sessions := api.Group("/sessions")
	sessions.Post("/", h.CreateSession)
	sessions.Get("/:id", h.GetSession)
	sessions.Put("/:id/topic", h.SetTopic)
	sessions.Put("/:id/categories", h.SetCategories)
	sessions.Put("/:id/article", h.SetArticleData)
	sessions.Put("/:id/qa-pairs", h.SetQAPairs)
	sessions.Put("/:id/annotations", h.UpdateAnnotations)
	sessions.Put("/:id/metadata", h.SetMetadata)
	sessions.Post("/:id/submit", h.Submit)

	api.Get("/records/export", h.ExportRecords)
}

func (h *AnnotationHandler) sessionID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if errs := h.validator.ValidateSessionID(id); len(errs) > 0 {
		return "", errs
	}
	return id, nil
}

// CreateSession godoc
// @Summary Start a new annotation session
// @Description Creates a session at the START stage
// @Tags sessions
// @Produce json
// @Success 201 {object} dto.SessionResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /sessions [post]
func (h *AnnotationHandler) CreateSession(c *fiber.Ctx) error {
	resp, err := h.service.CreateSession(c.Context())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetSession godoc
// @Summary Get session state
// @Description Returns the session's stage and all inputs collected so far
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /sessions/{id} [get]
func (h *AnnotationHandler) GetSession(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}
	resp, err := h.service.GetSession(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SetTopic godoc
// @Summary Set the article topic
// @Description Stores the topic and advances the session to TOPIC_ENTERED
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.TopicRequest true "Topic"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/topic [put]
func (h *AnnotationHandler) SetTopic(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}
	var req dto.TopicRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "INVALID_REQUEST",
		})
	}
	resp, err := h.service.SetTopic(c.Context(), id, req.Topic)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SetCategories godoc
// @Summary Set the sensitive-information categories
// @Description Validates the category rows and returns the article-generation prompt
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.CategoriesRequest true "Category rows"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/categories [put]
func (h *AnnotationHandler) SetCategories(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}
	var req dto.CategoriesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "INVALID_REQUEST",
		})
	}
	resp, err := h.service.SetCategories(c.Context(), id, req.Categories)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SetArticleData godoc
// @Summary Paste the generated article data
// @Description Validates the pasted article JSON and returns the Q&A prompt
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.RawPayloadRequest true "Pasted article JSON"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/article [put]
func (h *AnnotationHandler) SetArticleData(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}
	var req dto.RawPayloadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "INVALID_REQUEST",
		})
	}
	resp, err := h.service.SetArticleData(c.Context(), id, req.Raw)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SetQAPairs godoc
// @Summary Paste the generated Q&A pairs
// @Description Validates the pasted Q&A JSON and seeds the editable annotation rows
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.RawPayloadRequest true "Pasted Q&A JSON"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/qa-pairs [put]
func (h *AnnotationHandler) SetQAPairs(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}
	var req dto.RawPayloadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "INVALID_REQUEST",
		})
	}
	resp, err := h.service.SetQAPairs(c.Context(), id, req.Raw)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// UpdateAnnotations godoc
// @Summary Update the edited Q&A rows
// @Description Replaces the scrubbed/annotated rows while the session is ANNOTATING
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.AnnotationsRequest true "Edited rows"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/annotations [put]
func (h *AnnotationHandler) UpdateAnnotations(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}
	var req dto.AnnotationsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "INVALID_REQUEST",
		})
	}
	resp, err := h.service.UpdateAnnotations(c.Context(), id, req.EditedQAs)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SetMetadata godoc
// @Summary Set the submission metadata
// @Description Requires an LLM name; extra fields pass through unchanged
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.MetadataRequest true "Metadata"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /sessions/{id}/metadata [put]
func (h *AnnotationHandler) SetMetadata(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}
	var req dto.MetadataRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "INVALID_REQUEST",
		})
	}
	resp, err := h.service.SetMetadata(c.Context(), id, req.Metadata)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Submit godoc
// @Summary Submit the annotated record
// @Description Stamps created_at, writes the record file and finishes the session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SubmitResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *AnnotationHandler) Submit(c *fiber.Ctx) error {
	id, err := h.sessionID(c)
	if err != nil {
		return err
	}
	resp, err := h.service.Submit(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ExportRecords godoc
// @Summary Download all annotated records
// @Description Aggregates every saved record file into one JSON array
// @Tags records
// @Produce json
// @Success 200 {array} object
// @Failure 500 {object} middleware.ErrorResponse
// @Router /records/export [get]
func (h *AnnotationHandler) ExportRecords(c *fiber.Ctx) error {
	data, err := h.service.ExportRecords(c.Context())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/json")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="data.json"`)
	return c.Send(data)
}
