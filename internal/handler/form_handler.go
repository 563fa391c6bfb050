package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/formworks/intake-api/internal/models"
	"github.com/formworks/intake-api/internal/questionnaire"
	appErrors "github.com/formworks/intake-api/pkg/errors"
	"github.com/formworks/intake-api/pkg/response"
)

const formTemplate = `<!doctype html>
<html lang="en-US">
  <head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width,initial-scale=1">
    <title>{{.Title}}</title>
    <style>
label, button, input, textarea, select {
  display: block;
  width: 100%;
  box-sizing: border-box;
}
button, input, textarea, select {
  margin-bottom: 1rem;
  padding: 0.5rem;
}
    </style>
  </head>
  <body>
    <header role="banner">
      <h1>{{.Title}}</h1>
    </header>
    <main role="main">
      <form action="/" method="post" enctype="multipart/form-data">
{{- range .Questionnaire}}
        <fieldset>
          <legend>{{.Heading}}</legend>
{{- range .Questions}}
          <label for="{{.Name}}">{{.Prompt}}</label>
{{- if .Options}}
          <select id="{{.Name}}" name="{{.Name}}">
{{- range $value, $label := .Options}}
            <option value="{{$value}}">{{$label}}</option>
{{- end}}
          </select>
{{- else}}
          <textarea id="{{.Name}}" name="{{.Name}}"></textarea>
{{- end}}
{{- end}}
        </fieldset>
{{- end}}
        <fieldset>
          <legend>Submit</legend>
          <label for="{{.SubmitterField}}">Your E-Mail</label>
          <input id="{{.SubmitterField}}" name="{{.SubmitterField}}" type="email">
          <label for="attachments">Attachments</label>
          <input id="attachments" name="attachments" type="file" multiple>
          <button type="submit">Submit</button>
        </fieldset>
      </form>
    </main>
  </body>
</html>
`

// FormHandler renders the intake form from the questionnaire definition.
type FormHandler struct {
	questionnaire models.Questionnaire
	title         string
	tmpl          *template.Template
	logger        *zap.Logger
}

func NewFormHandler(q models.Questionnaire, title string, logger *zap.Logger) (*FormHandler, error) {
	tmpl, err := template.New("form").Parse(formTemplate)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormHandler{questionnaire: q, title: title, tmpl: tmpl, logger: logger}, nil
}

// Show answers GET / with the rendered form page. Authentication happens
// in the shared-secret middleware before this handler runs.
func (h *FormHandler) Show(c *gin.Context) {
	var buf bytes.Buffer
	err := h.tmpl.Execute(&buf, struct {
		Title          string
		SubmitterField string
		Questionnaire  models.Questionnaire
	}{
		Title:          h.title,
		SubmitterField: questionnaire.SubmitterField,
		Questionnaire:  h.questionnaire,
	})
	if err != nil {
		h.logger.Error("form template failed", zap.Error(err))
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render form"))
		return
	}
	response.HTML(c, http.StatusOK, buf.Bytes())
}
