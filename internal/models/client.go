package models

// Client is one record of the read-only client directory file. A record
// matches a submitter either by exact e-mail or by the domain portion of
// their address.
type Client struct {
	Name   string   `json:"name,omitempty"`
	Emails []string `json:"emails,omitempty"`
	Domain string   `json:"domain,omitempty"`
	CC     string   `json:"cc,omitempty"`
}
