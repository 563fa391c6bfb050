package questionnaire

import "github.com/formworks/intake-api/internal/models"

// SubmitterField is the fixed form field carrying the submitter's e-mail.
// It is not part of the questionnaire proper.
const SubmitterField = "cc"

// Default returns the built-in sales-intake questionnaire, used when no
// definition file is configured.
func Default() models.Questionnaire {
	return models.Questionnaire{
		{
			Heading: "Your Company",
			Questions: []models.Question{
				{Name: "company", Prompt: "What is your company called?"},
				{Name: "website", Prompt: "Where can we find your company online?"},
				{
					Name:   "size",
					Prompt: "How large is your company?",
					Options: map[string]string{
						"solo":   "Just me",
						"small":  "2 to 25 people",
						"medium": "26 to 250 people",
						"large":  "More than 250 people",
					},
				},
			},
		},
		{
			Heading: "Your Project",
			Questions: []models.Question{
				{Name: "summary", Prompt: "In a sentence or two, what do you need?"},
				{Name: "background", Prompt: "What background should we have before our first call?"},
				{
					Name:   "timeline",
					Prompt: "When do you need this done?",
					Options: map[string]string{
						"asap":     "As soon as possible",
						"month":    "Within a month",
						"quarter":  "Within the quarter",
						"flexible": "Flexible",
					},
				},
			},
		},
		{
			Heading: "Budget",
			Questions: []models.Question{
				{
					Name:   "budget",
					Prompt: "What budget range have you set aside?",
					Options: map[string]string{
						"under5k":  "Under $5,000",
						"under25k": "$5,000 to $25,000",
						"over25k":  "More than $25,000",
						"unknown":  "Not sure yet",
					},
				},
			},
		},
	}
}
