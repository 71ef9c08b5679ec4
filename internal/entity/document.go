package entity

// DocumentHandle is an uploaded document that must be released once processed.
type DocumentHandle interface {
	Bytes() ([]byte, error)
	Release() error
}

// Candidate is a lead extracted from a document, not yet deduplicated or stored.
type Candidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`

	// Synthesized is set when the email was derived from a name rather than found in the text.
	Synthesized bool `json:"synthesized,omitempty"`
}
