package contact

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	restorehq "github.com/eugener/restorehq/internal"
)

// Email is a rendered plain-text message.
type Email struct {
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

var notificationTmpl = template.Must(template.New("notification").Parse(
	`New {{.Urgency}} enquiry from {{.Name}}

Name:     {{.Name}}
Email:    {{.Email}}
Phone:    {{if .Phone}}{{.Phone}}{{else}}not provided{{end}}
Postcode: {{.Postcode}} ({{if .Serviced}}in service area{{else}}OUTSIDE service area{{end}})
Service:  {{if .Service}}{{.Service}}{{else}}not specified{{end}}

{{.Message}}

Reference: {{.ID}}
Received:  {{.CreatedAt.Format "02 Jan 2006 15:04 MST"}}
`))

var autoReplyTmpl = template.Must(template.New("autoreply").Parse(
	`Hi {{.FirstName}},

Thanks for contacting {{.Business}}. {{if .Emergency -}}
Our emergency team has been alerted and will call you shortly.
{{- else -}}
One of our team will be in touch within one business day.
{{- end}}
{{if not .Serviced}}
Your postcode ({{.Postcode}}) is outside our usual service area, so we will
confirm availability when we call.
{{end}}
If your situation is urgent, call us on {{.Phone}}.

Your reference is {{.ID}}.

{{.Business}}
`))

// Templates renders lead emails for one business.
type Templates struct {
	Business    string // display name used in customer emails
	TeamEmail   string // inbox receiving lead notifications
	Phone       string // emergency line quoted in replies
	SubjectHint string // optional prefix for notification subjects
}

// Notification renders the email the team receives for a new lead.
// Emergencies are prefixed with URGENT.
func (t Templates) Notification(lead *restorehq.Lead) (Email, error) {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, lead); err != nil {
		return Email{}, fmt.Errorf("render notification: %w", err)
	}

	subject := fmt.Sprintf("New enquiry: %s (%s)", lead.Name, lead.Postcode)
	if t.SubjectHint != "" {
		subject = t.SubjectHint + " " + subject
	}
	if lead.Urgency == restorehq.UrgencyEmergency {
		subject = "URGENT " + subject
	}
	return Email{
		To:      t.TeamEmail,
		ReplyTo: lead.Email,
		Subject: subject,
		Body:    buf.String(),
	}, nil
}

// AutoReply renders the acknowledgement sent back to the customer.
func (t Templates) AutoReply(lead *restorehq.Lead) (Email, error) {
	data := struct {
		FirstName string
		Business  string
		Phone     string // business line, not the lead's
		Postcode  string
		ID        string
		Emergency bool
		Serviced  bool
	}{
		FirstName: firstName(lead.Name),
		Business:  t.Business,
		Phone:     t.Phone,
		Postcode:  lead.Postcode,
		ID:        lead.ID,
		Emergency: lead.Urgency == restorehq.UrgencyEmergency,
		Serviced:  lead.Serviced,
	}
	var buf bytes.Buffer
	if err := autoReplyTmpl.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("render auto-reply: %w", err)
	}
	return Email{
		To:      lead.Email,
		ReplyTo: t.TeamEmail,
		Subject: "We've received your enquiry - " + t.Business,
		Body:    buf.String(),
	}, nil
}

func firstName(name string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(name), " ")
	if first == "" {
		return "there"
	}
	return cases.Title(language.English).String(first)
}
