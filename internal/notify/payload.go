package notify

import (
	"strings"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/contact"
)

// leadInboxRequest is the body posted to the lead inbox API.
type leadInboxRequest struct {
	Lead         *restorehq.Lead `json:"lead"`
	Notification contact.Email   `json:"notification"`
	AutoReply    contact.Email   `json:"auto_reply"`
}

// LeadInboxPayload returns a PayloadFunc that sends the lead together with
// the rendered team notification and customer auto-reply.
func LeadInboxPayload(t contact.Templates) PayloadFunc {
	return func(lead *restorehq.Lead) (any, error) {
		n, err := t.Notification(lead)
		if err != nil {
			return nil, err
		}
		ar, err := t.AutoReply(lead)
		if err != nil {
			return nil, err
		}
		return leadInboxRequest{Lead: lead, Notification: n, AutoReply: ar}, nil
	}
}

// crmContact is the body posted to the CRM contacts API.
type crmContact struct {
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name,omitempty"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	Postcode   string   `json:"postcode"`
	Source     string   `json:"source"`
	ExternalID string   `json:"external_id"`
	Tags       []string `json:"tags,omitempty"`
	Note       string   `json:"note"`
}

// CRMPayload maps a lead onto a CRM contact record.
func CRMPayload(lead *restorehq.Lead) (any, error) {
	first, last, _ := strings.Cut(lead.Name, " ")
	tags := []string{string(lead.Urgency)}
	if lead.Service != "" {
		tags = append(tags, lead.Service)
	}
	if !lead.Serviced {
		tags = append(tags, "out-of-area")
	}
	return crmContact{
		FirstName:  first,
		LastName:   last,
		Email:      lead.Email,
		Phone:      lead.Phone,
		Postcode:   lead.Postcode,
		Source:     "website",
		ExternalID: lead.ID,
		Tags:       tags,
		Note:       lead.Message,
	}, nil
}
