// Package questionnaire loads and validates the form schema.
package questionnaire

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/formworks/intake-api/internal/models"
)

type definition struct {
	Sections []models.Section `validate:"min=1,dive"`
}

// Load reads the questionnaire definition from path, a JSON array of
// sections. An empty path selects the built-in default. An invalid
// definition is a startup failure.
func Load(path string, v *validator.Validate) (models.Questionnaire, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire %s: %w", path, err)
	}

	var sections []models.Section
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("parse questionnaire %s: %w", path, err)
	}

	q := models.Questionnaire(sections)
	if err := validate(q, v); err != nil {
		return nil, fmt.Errorf("invalid questionnaire %s: %w", path, err)
	}
	return q, nil
}

func validate(q models.Questionnaire, v *validator.Validate) error {
	if v == nil {
		v = validator.New()
	}
	if err := v.Struct(definition{Sections: q}); err != nil {
		return err
	}

	seen := make(map[string]struct{}, q.QuestionCount())
	for _, section := range q {
		for _, question := range section.Questions {
			if question.Name == SubmitterField {
				return fmt.Errorf("question name %q is reserved for the submitter e-mail", question.Name)
			}
			if _, dup := seen[question.Name]; dup {
				return fmt.Errorf("duplicate question name %q", question.Name)
			}
			seen[question.Name] = struct{}{}
		}
	}
	return nil
}
