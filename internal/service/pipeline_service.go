package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/formworks/intake-api/internal/mailer"
	"github.com/formworks/intake-api/internal/models"
	appErrors "github.com/formworks/intake-api/pkg/errors"
)

// Pipeline step names, also used as metric labels.
const (
	StepPersist = "persist"
	StepResolve = "resolve"
	StepRender  = "render"
	StepDeliver = "deliver"
)

type submissionStore interface {
	Save(filename string, data []byte) (string, error)
}

type clientDirectory interface {
	Lookup(email string) (*models.Client, error)
}

type summaryRenderer interface {
	Render(sub *models.Submission, q models.Questionnaire) (markdown, html string, err error)
}

type mailSender interface {
	Send(ctx context.Context, msg *mailer.Message) error
}

// PipelineConfig carries the delivery parameters the pipeline decides on.
// Recipient is the fixed To address; the Cc list must never repeat it.
type PipelineConfig struct {
	Subject   string
	Recipient string
}

// Pipeline processes one submission through its four ordered steps:
// persist, resolve, render, deliver. The first failing step aborts the
// rest and its error is what the HTTP layer reports.
type Pipeline struct {
	questionnaire models.Questionnaire
	store         submissionStore
	directory     clientDirectory
	renderer      summaryRenderer
	sender        mailSender
	metrics       *MetricsService
	logger        *zap.Logger
	cfg           PipelineConfig
}

func NewPipeline(
	q models.Questionnaire,
	store submissionStore,
	directory clientDirectory,
	renderer summaryRenderer,
	sender mailSender,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg PipelineConfig,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Subject == "" {
		cfg.Subject = "Sales Intake"
	}
	return &Pipeline{
		questionnaire: q,
		store:         store,
		directory:     directory,
		renderer:      renderer,
		sender:        sender,
		metrics:       metrics,
		logger:        logger,
		cfg:           cfg,
	}
}

// Process runs the pipeline to completion or first failure. It does not
// retry; a failed delivery is logged and surfaced, never re-attempted.
func (p *Pipeline) Process(ctx context.Context, sub *models.Submission) error {
	if p.metrics != nil {
		p.metrics.ObserveSubmission()
	}

	var markdown, html string
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{StepPersist, func(context.Context) error { return p.persist(sub) }},
		{StepResolve, func(context.Context) error { return p.resolve(sub) }},
		{StepRender, func(context.Context) error {
			var err error
			markdown, html, err = p.renderer.Render(sub, p.questionnaire)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render email body")
			}
			return nil
		}},
		{StepDeliver, func(ctx context.Context) error { return p.deliver(ctx, sub, markdown, html) }},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			if p.metrics != nil {
				p.metrics.ObserveStepFailure(step.name)
			}
			p.logger.Error("submission pipeline aborted",
				zap.String("step", step.name),
				zap.String("submission_id", sub.ID),
				zap.Error(err))
			return err
		}
	}

	if p.metrics != nil {
		p.metrics.ObserveEmailSent()
	}
	p.logger.Info("submission processed",
		zap.String("submission_id", sub.ID),
		zap.Int("attachments", len(sub.Attachments)))
	return nil
}

// submissionRecord is the self-describing document written per submission.
// It carries the questionnaire snapshot so the archive can be interpreted
// even after the live definition changes.
type submissionRecord struct {
	ID            string               `json:"id"`
	Date          string               `json:"date"`
	CC            string               `json:"cc,omitempty"`
	Data          map[string]string    `json:"data"`
	Attachments   []models.Attachment  `json:"attachments,omitempty"`
	Questionnaire models.Questionnaire `json:"questionnaire"`
}

func (p *Pipeline) persist(sub *models.Submission) error {
	record := submissionRecord{
		ID:            sub.ID,
		Date:          sub.Date,
		CC:            sub.SubmitterCC,
		Data:          sub.Answers,
		Attachments:   sub.Attachments,
		Questionnaire: p.questionnaire,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, "encode submission record")
	}
	if _, err := p.store.Save(sub.ID+".json", data); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageWrite.Code, appErrors.ErrStorageWrite.Status, "write submission record")
	}
	return nil
}

func (p *Pipeline) resolve(sub *models.Submission) error {
	client, err := p.directory.Lookup(sub.SubmitterCC)
	if err != nil {
		return err
	}
	sub.Client = client
	return nil
}

func (p *Pipeline) deliver(ctx context.Context, sub *models.Submission, markdown, html string) error {
	msg := &mailer.Message{
		Subject:     p.subject(sub),
		Text:        markdown,
		HTML:        html,
		ReplyTo:     sub.SubmitterCC,
		CC:          p.ccList(sub),
		Attachments: sub.Attachments,
	}
	if err := p.sender.Send(ctx, msg); err != nil {
		return appErrors.Wrap(err, appErrors.ErrEmailDelivery.Code, appErrors.ErrEmailDelivery.Status, "send notification email")
	}
	return nil
}

// subject appends the first answered question, in questionnaire order, to
// the configured subject so the inbox line carries something salient.
// Answers may span multiple lines; the subject is a single header line,
// so runs of whitespace collapse to one space.
func (p *Pipeline) subject(sub *models.Submission) string {
	for _, section := range p.questionnaire {
		for _, question := range section.Questions {
			if answer := strings.Join(strings.Fields(sub.Answers[question.Name]), " "); answer != "" {
				return p.cfg.Subject + ": " + answer
			}
		}
	}
	return p.cfg.Subject
}

// ccList merges the submitter with the resolved client's cc address,
// deduplicated case-insensitively, first spelling wins. The fixed To
// address is excluded so nobody ends up in both To and Cc.
func (p *Pipeline) ccList(sub *models.Submission) []string {
	candidates := []string{sub.SubmitterCC}
	if sub.Client != nil {
		candidates = append(candidates, sub.Client.CC)
	}

	seen := map[string]struct{}{
		strings.ToLower(p.cfg.Recipient): {},
	}
	cc := make([]string, 0, len(candidates))
	for _, address := range candidates {
		if address == "" {
			continue
		}
		key := strings.ToLower(address)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cc = append(cc, address)
	}
	return cc
}
