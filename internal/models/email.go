package models

// EmailClient identifies the webmail product a page belongs to
type EmailClient string

const (
	EmailClientUnknown EmailClient = ""
	EmailClientGmail   EmailClient = "gmail"
	EmailClientOutlook EmailClient = "outlook"
	// EmailClientMessage is a raw RFC 822 message (.eml file or IMAP fetch)
	EmailClientMessage EmailClient = "message"
)

// ExtractedEmail is the normalized record produced by one extraction request.
// When Success is true at least one of Subject or Body is non-empty.
type ExtractedEmail struct {
	Success bool        `json:"success" yaml:"success"`
	Client  EmailClient `json:"client,omitempty" yaml:"client,omitempty"`
	Subject string      `json:"subject" yaml:"subject"`
	From    string      `json:"from" yaml:"from"`
	To      string      `json:"to" yaml:"to"`
	Date    string      `json:"date" yaml:"date"`
	Body    string      `json:"body" yaml:"body"`
	Error   string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// ExtractionFailure builds a failed extraction result carrying a human-readable reason
func ExtractionFailure(client EmailClient, reason string) ExtractedEmail {
	return ExtractedEmail{
		Success: false,
		Client:  client,
		Error:   reason,
	}
}
