package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/formworks/intake-api/internal/directory"
	"github.com/formworks/intake-api/internal/mailer"
	"github.com/formworks/intake-api/internal/questionnaire"
	"github.com/formworks/intake-api/internal/render"
	"github.com/formworks/intake-api/internal/service"
	"github.com/formworks/intake-api/pkg/config"
	"github.com/formworks/intake-api/pkg/storage"
)

type recordingSender struct {
	err  error
	sent []*mailer.Message
}

func (s *recordingSender) Send(ctx context.Context, msg *mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type intakeFixture struct {
	router  *gin.Engine
	sender  *recordingSender
	dataDir string
}

func newIntakeFixture(t *testing.T, senderErr error) *intakeFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	clientsPath := filepath.Join(t.TempDir(), "clients.json")
	require.NoError(t, os.WriteFile(clientsPath, []byte(`[{"domain": "Acme.com", "cc": "legal@acme.com"}]`), 0o644))

	cfg := &config.Config{
		Env:                 config.EnvDevelopment,
		SharedSecret:        "s3cret",
		DataDir:             dataDir,
		ClientDirectoryPath: clientsPath,
		MaxBodyBytes:        1 << 20,
	}

	q := questionnaire.Default()
	store, err := storage.NewLocalStorage(dataDir)
	require.NoError(t, err)

	sender := &recordingSender{err: senderErr}
	pipeline := service.NewPipeline(q, store, directory.New(clientsPath), render.New(), sender, nil, zap.NewNop(),
		service.PipelineConfig{Subject: "Sales Intake"})
	assembler := service.NewAssembler(q, store, nil, zap.NewNop())

	form, err := NewFormHandler(q, "Sales Intake", zap.NewNop())
	require.NoError(t, err)
	submissions := NewSubmissionHandler(assembler, pipeline, cfg.MaxBodyBytes, zap.NewNop())

	return &intakeFixture{
		router:  NewRouter(cfg, zap.NewNop(), service.NewMetricsService(), form, submissions),
		sender:  sender,
		dataDir: dataDir,
	}
}

func postSubmission(t *testing.T, r *gin.Engine, fields map[string]string, attachment string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	if attachment != "" {
		part, err := writer.CreateFormFile("attachments", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte(attachment))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmissionEndToEnd(t *testing.T) {
	fx := newIntakeFixture(t, nil)

	w := postSubmission(t, fx.router, map[string]string{
		"company":  "Acme",
		"cc":       "bob@acme.com",
		"injected": "dropped",
	}, "remember the milk")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "received")

	// Exactly one persisted record under the data directory.
	entries, err := os.ReadDir(fx.dataDir)
	require.NoError(t, err)
	var recordPath string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			require.Empty(t, recordPath, "expected a single record")
			recordPath = filepath.Join(fx.dataDir, entry.Name())
		}
	}
	require.NotEmpty(t, recordPath)

	raw, err := os.ReadFile(recordPath)
	require.NoError(t, err)
	var record struct {
		ID   string            `json:"id"`
		Data map[string]string `json:"data"`
		CC   string            `json:"cc"`
	}
	require.NoError(t, json.Unmarshal(raw, &record))
	assert.Equal(t, "Acme", record.Data["company"])
	assert.NotContains(t, record.Data, "injected")
	assert.Equal(t, "bob@acme.com", record.CC)

	// One outbound message, cc'ing the submitter and the resolved client.
	require.Len(t, fx.sender.sent, 1)
	msg := fx.sender.sent[0]
	assert.ElementsMatch(t, []string{"bob@acme.com", "legal@acme.com"}, msg.CC)
	assert.Equal(t, "bob@acme.com", msg.ReplyTo)
	assert.Contains(t, msg.Text, "## Your Company")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "notes.txt", msg.Attachments[0].Filename)
}

func TestSubmissionDeliveryFailureAnswersGeneric500(t *testing.T) {
	fx := newIntakeFixture(t, errors.New("mailgun exploded"))

	w := postSubmission(t, fx.router, map[string]string{"company": "Acme", "cc": "bob@acme.com"}, "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Error", w.Body.String())
	assert.NotContains(t, w.Body.String(), "mailgun")
}

func TestSubmissionNonMultipartAnswers400(t *testing.T) {
	fx := newIntakeFixture(t, nil)

	req, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader("company=Acme"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, fx.sender.sent)
}

func TestUnsupportedMethodAnswers405(t *testing.T) {
	fx := newIntakeFixture(t, nil)

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
		req, _ := http.NewRequest(method, "/", nil)
		w := httptest.NewRecorder()
		fx.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
	}
}

func TestHealthz(t *testing.T) {
	fx := newIntakeFixture(t, nil)
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpointExposed(t *testing.T) {
	fx := newIntakeFixture(t, nil)
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
