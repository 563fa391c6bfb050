package service

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formworks/intake-api/internal/models"
	appErrors "github.com/formworks/intake-api/pkg/errors"
)

type storageStub struct {
	saved   map[string][]byte
	failAll bool
}

func newStorageStub() *storageStub {
	return &storageStub{saved: make(map[string][]byte)}
}

func (s *storageStub) SaveStream(filename string, r io.Reader) (int64, error) {
	if s.failAll {
		return 0, errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.saved[filename] = data
	return int64(len(data)), nil
}

func (s *storageStub) Path(filename string) string {
	return "/data/" + filename
}

func (s *storageStub) Save(filename string, data []byte) (string, error) {
	if s.failAll {
		return "", errors.New("disk full")
	}
	s.saved[filename] = append([]byte(nil), data...)
	return filename, nil
}

func assemblerQuestionnaire() models.Questionnaire {
	return models.Questionnaire{
		{
			Heading: "Your Company",
			Questions: []models.Question{
				{Name: "company", Prompt: "What is your company called?"},
				{Name: "budget", Prompt: "What budget range have you set aside?", Options: map[string]string{"over25k": "More than $25,000"}},
			},
		},
	}
}

type multipartBody struct {
	buf    bytes.Buffer
	writer *multipart.Writer
}

func newMultipartBody() *multipartBody {
	b := &multipartBody{}
	b.writer = multipart.NewWriter(&b.buf)
	return b
}

func (b *multipartBody) field(t *testing.T, name, value string) {
	t.Helper()
	require.NoError(t, b.writer.WriteField(name, value))
}

func (b *multipartBody) file(t *testing.T, field, filename, contentType, content string) {
	t.Helper()
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := b.writer.CreatePart(header)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
}

func (b *multipartBody) reader(t *testing.T) *multipart.Reader {
	t.Helper()
	require.NoError(t, b.writer.Close())
	return multipart.NewReader(&b.buf, b.writer.Boundary())
}

func TestAssembleAllowListsFieldNames(t *testing.T) {
	body := newMultipartBody()
	body.field(t, "company", "  Acme  ")
	body.field(t, "budget", "over25k")
	body.field(t, "injected", "evil")
	body.field(t, "cc", "bob@acme.com")

	asm := NewAssembler(assemblerQuestionnaire(), newStorageStub(), nil, nil)
	sub, err := asm.Assemble(body.reader(t))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"company": "Acme", "budget": "over25k"}, sub.Answers)
	assert.Equal(t, "bob@acme.com", sub.SubmitterCC)
	assert.NotContains(t, sub.Answers, "injected")
	assert.NotContains(t, sub.Answers, "cc")
}

func TestAssembleAssignsIdentityAndTimestamp(t *testing.T) {
	body := newMultipartBody()
	body.field(t, "company", "Acme")

	asm := NewAssembler(assemblerQuestionnaire(), newStorageStub(), nil, nil)
	sub, err := asm.Assemble(body.reader(t))
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID)
	assert.NotEmpty(t, sub.Date)
	assert.Contains(t, sub.Date, "T")
}

func TestAssembleDropsInvalidSubmitterEmail(t *testing.T) {
	body := newMultipartBody()
	body.field(t, "cc", "not an address")

	asm := NewAssembler(assemblerQuestionnaire(), newStorageStub(), nil, nil)
	sub, err := asm.Assemble(body.reader(t))
	require.NoError(t, err)
	assert.Empty(t, sub.SubmitterCC)
}

func TestAssembleStreamsAttachments(t *testing.T) {
	body := newMultipartBody()
	body.field(t, "company", "Acme")
	body.file(t, "attachments", "notes.txt", "text/plain", "remember the milk")

	store := newStorageStub()
	asm := NewAssembler(assemblerQuestionnaire(), store, nil, nil)
	sub, err := asm.Assemble(body.reader(t))
	require.NoError(t, err)

	require.Len(t, sub.Attachments, 1)
	att := sub.Attachments[0]
	assert.Equal(t, "notes.txt", att.Filename)
	assert.Equal(t, "text/plain", att.ContentType)
	assert.Equal(t, int64(len("remember the milk")), att.SizeBytes)

	require.Len(t, store.saved, 1)
	for name, content := range store.saved {
		assert.Contains(t, name, sub.ID)
		assert.Contains(t, name, "notes.txt")
		assert.Equal(t, "remember the milk", string(content))
	}
}

func TestAssembleToleratesAttachmentStreamFailure(t *testing.T) {
	body := newMultipartBody()
	body.field(t, "company", "Acme")
	body.file(t, "attachments", "notes.txt", "text/plain", "lost")

	store := newStorageStub()
	store.failAll = true
	asm := NewAssembler(assemblerQuestionnaire(), store, nil, nil)
	sub, err := asm.Assemble(body.reader(t))
	require.NoError(t, err)

	assert.Empty(t, sub.Attachments)
	assert.Equal(t, "Acme", sub.Answers["company"])
}

func TestAssembleMalformedBodyFails(t *testing.T) {
	reader := multipart.NewReader(strings.NewReader("this is not multipart"), "nope")
	asm := NewAssembler(assemblerQuestionnaire(), newStorageStub(), nil, nil)
	_, err := asm.Assemble(reader)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedRequest.Code, appErrors.FromError(err).Code)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "notes.txt", sanitizeFilename("notes.txt"))
	assert.Equal(t, "etc_passwd", sanitizeFilename("../../etc passwd"))
	assert.Equal(t, "attachment", sanitizeFilename(".."))
}
