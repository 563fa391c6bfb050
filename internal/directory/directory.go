// Package directory resolves submitters against the client directory file.
package directory

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/formworks/intake-api/internal/models"
	appErrors "github.com/formworks/intake-api/pkg/errors"
)

// Directory looks up client records in a JSON file. The file is read fresh
// on every call so it stays the single source of truth; this service never
// writes it.
type Directory struct {
	path string
}

func New(path string) *Directory {
	return &Directory{path: path}
}

// Lookup returns the first record whose emails contain the exact address,
// or, failing that, the first record whose domain matches the address's
// domain case-insensitively. A nil record with nil error means no match.
func (d *Directory) Lookup(email string) (*models.Client, error) {
	records, err := d.read()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || email == "" {
		return nil, nil
	}

	for i := range records {
		for _, known := range records[i].Emails {
			if known == email {
				return &records[i], nil
			}
		}
	}

	domain := emailDomain(email)
	if domain == "" {
		return nil, nil
	}
	for i := range records {
		if records[i].Domain != "" && strings.EqualFold(records[i].Domain, domain) {
			return &records[i], nil
		}
	}
	return nil, nil
}

func (d *Directory) read() ([]models.Client, error) {
	raw, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDirectoryRead.Code, appErrors.ErrDirectoryRead.Status, "read client directory")
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		if json.Valid(raw) {
			// Well-formed JSON that is not an array: treat as empty.
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrDirectoryRead.Code, appErrors.ErrDirectoryRead.Status, "parse client directory")
	}

	records := make([]models.Client, 0, len(elements))
	for _, element := range elements {
		var client models.Client
		if err := json.Unmarshal(element, &client); err != nil {
			// Records that do not look like clients simply never match.
			continue
		}
		records = append(records, client)
	}
	return records, nil
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
