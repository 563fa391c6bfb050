package models

// Attachment records one uploaded file, already streamed to disk.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	Path        string `json:"-"`
}

// Submission is one filed instance of the intake form. It is owned by the
// request that created it; its only durable trace is the JSON record
// written under the data directory.
type Submission struct {
	ID          string
	Date        string
	Answers     map[string]string
	SubmitterCC string
	Attachments []Attachment
	Client      *Client
}
