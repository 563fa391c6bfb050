package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formworks/intake-api/internal/models"
	"github.com/formworks/intake-api/internal/questionnaire"
	appErrors "github.com/formworks/intake-api/pkg/errors"
)

// Answers longer than this are cut off; nobody types a megabyte into a
// textarea.
const maxFieldBytes = 1 << 20

type attachmentStorage interface {
	SaveStream(filename string, r io.Reader) (int64, error)
	Path(filename string) string
}

// Assembler turns a streaming multipart body into a Submission. Field
// names are allow-listed against the questionnaire; everything else is
// silently dropped. File parts are streamed to the per-submission
// attachment area as they arrive.
type Assembler struct {
	questionnaire models.Questionnaire
	storage       attachmentStorage
	validate      *validator.Validate
	logger        *zap.Logger
}

func NewAssembler(q models.Questionnaire, storage attachmentStorage, validate *validator.Validate, logger *zap.Logger) *Assembler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		questionnaire: q,
		storage:       storage,
		validate:      validate,
		logger:        logger,
	}
}

// Assemble consumes the multipart reader to the end. A broken attachment
// stream is logged and tolerated: the submission continues without that
// attachment. A malformed body fails the whole request with a 400-class
// error.
func (a *Assembler) Assemble(reader *multipart.Reader) (*models.Submission, error) {
	sub := &models.Submission{
		ID:      uuid.NewString(),
		Date:    time.Now().UTC().Format(time.RFC3339),
		Answers: make(map[string]string),
	}

	fileIndex := 0
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrMalformedRequest.Code, appErrors.ErrMalformedRequest.Status, "malformed multipart body")
		}

		if part.FileName() == "" {
			if err := a.collectField(sub, part); err != nil {
				return nil, err
			}
			continue
		}

		a.collectAttachment(sub, part, fileIndex)
		fileIndex++
	}

	return sub, nil
}

func (a *Assembler) collectField(sub *models.Submission, part *multipart.Part) error {
	defer part.Close() //nolint:errcheck

	name := part.FormName()
	raw, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrMalformedRequest.Code, appErrors.ErrMalformedRequest.Status, "read form field")
	}
	value := strings.TrimSpace(string(raw))

	switch {
	case name == questionnaire.SubmitterField:
		if value == "" {
			return nil
		}
		if err := a.validate.Var(value, "email"); err != nil {
			a.logger.Warn("dropping invalid submitter e-mail", zap.String("submission_id", sub.ID))
			return nil
		}
		sub.SubmitterCC = value
	case a.questionnaire.HasQuestion(name):
		sub.Answers[name] = value
	default:
		// Unknown field names are dropped without error.
	}
	return nil
}

func (a *Assembler) collectAttachment(sub *models.Submission, part *multipart.Part, index int) {
	defer part.Close() //nolint:errcheck

	original := part.FileName()
	rel := path.Join(sub.ID, "attachments", fmt.Sprintf("%02d-%s", index, sanitizeFilename(original)))

	size, err := a.storage.SaveStream(rel, part)
	if err != nil {
		a.logger.Warn("attachment stream failed, continuing without it",
			zap.String("submission_id", sub.ID),
			zap.String("filename", original),
			zap.Error(err))
		return
	}

	contentType := part.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	sub.Attachments = append(sub.Attachments, models.Attachment{
		Filename:    original,
		ContentType: contentType,
		SizeBytes:   size,
		Path:        a.storage.Path(rel),
	})
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" {
		return "attachment"
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "attachment"
	}
	return b.String()
}
