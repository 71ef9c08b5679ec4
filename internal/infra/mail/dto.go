package mail

import "html/template"

type LeadEmailData struct {
	Name      string
	Message   template.HTML // already escaped, line breaks turned into <br>
	Signature string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}
