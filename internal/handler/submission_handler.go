package handler

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/formworks/intake-api/internal/models"
	appErrors "github.com/formworks/intake-api/pkg/errors"
	"github.com/formworks/intake-api/pkg/response"
)

type submissionAssembler interface {
	Assemble(reader *multipart.Reader) (*models.Submission, error)
}

type submissionPipeline interface {
	Process(ctx context.Context, sub *models.Submission) (err error)
}

// SubmissionHandler accepts POST / multipart submissions and runs them
// through the pipeline within the request lifecycle.
type SubmissionHandler struct {
	assembler    submissionAssembler
	pipeline     submissionPipeline
	maxBodyBytes int64
	logger       *zap.Logger
}

func NewSubmissionHandler(assembler submissionAssembler, pipeline submissionPipeline, maxBodyBytes int64, logger *zap.Logger) *SubmissionHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 32 * 1024 * 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionHandler{
		assembler:    assembler,
		pipeline:     pipeline,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Create assembles and processes one submission. The pipeline runs on a
// context detached from the request's: a client hanging up early must not
// abort side effects already in flight.
func (h *SubmissionHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrMalformedRequest.Code, appErrors.ErrMalformedRequest.Status, "expected multipart form data"))
		return
	}

	sub, err := h.assembler.Assemble(reader)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.pipeline.Process(context.WithoutCancel(c.Request.Context()), sub); err != nil {
		response.Error(c, err)
		return
	}

	response.Text(c, http.StatusOK, "Thank you. Your submission has been received.")
}
