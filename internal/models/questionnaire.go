package models

// Question is one prompt in a questionnaire section. A non-nil Options map
// marks a single-choice question (value -> display label); nil means free
// text.
type Question struct {
	Name    string            `json:"name" validate:"required"`
	Prompt  string            `json:"prompt" validate:"required"`
	Options map[string]string `json:"options,omitempty"`
}

// Section groups an ordered run of questions under a heading.
type Section struct {
	Heading   string     `json:"heading" validate:"required"`
	Questions []Question `json:"questions" validate:"min=1,dive"`
}

// Questionnaire is the static form schema, loaded once at startup and
// shared read-only across requests.
type Questionnaire []Section

// HasQuestion reports whether name identifies a question anywhere in the
// questionnaire. Used to allow-list incoming form fields.
func (q Questionnaire) HasQuestion(name string) bool {
	for _, section := range q {
		for _, question := range section.Questions {
			if question.Name == name {
				return true
			}
		}
	}
	return false
}

// QuestionCount returns the total number of questions across all sections.
func (q Questionnaire) QuestionCount() int {
	count := 0
	for _, section := range q {
		count += len(section.Questions)
	}
	return count
}
