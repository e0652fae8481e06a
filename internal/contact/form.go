// Package contact validates contact-form submissions, renders the lead
// emails and dispatches leads to external notifiers in the background.
package contact

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/area"
)

const (
	maxNameLen    = 120
	maxMessageLen = 5000
	minPhoneDigit = 8
	maxPhoneDigit = 15
)

// Form is the raw contact-form payload.
type Form struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Postcode string `json:"postcode"`
	Service  string `json:"service"`
	Urgency  string `json:"urgency"`
	Message  string `json:"message"`
	Website  string `json:"website"` // honeypot, hidden from humans
}

// IsSpam reports whether the honeypot field was filled in.
func (f Form) IsSpam() bool { return strings.TrimSpace(f.Website) != "" }

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a submission.
// It matches restorehq.ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return restorehq.ErrValidation }

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// ServiceChecker answers postcode coverage questions.
type ServiceChecker interface {
	IsServiced(postcode string) bool
}

// Validator turns Forms into Leads.
type Validator struct {
	areas    ServiceChecker
	services map[string]struct{} // allowed service slugs; empty = any
	now      func() time.Time
}

// NewValidator returns a Validator that flags leads from serviced postcodes
// and restricts the service field to the given catalogue slugs.
func NewValidator(areas ServiceChecker, services []restorehq.Service) *Validator {
	slugs := make(map[string]struct{}, len(services))
	for _, s := range services {
		slugs[s.Slug] = struct{}{}
	}
	return &Validator{areas: areas, services: slugs, now: time.Now}
}

// Validate checks every field and returns a Lead, or a *ValidationError
// naming all invalid fields.
func (v *Validator) Validate(f Form) (*restorehq.Lead, error) {
	verr := &ValidationError{}

	name := SanitizeLine(f.Name)
	switch {
	case name == "":
		verr.add("name", "is required")
	case utf8.RuneCountInString(name) > maxNameLen:
		verr.add("name", fmt.Sprintf("must be at most %d characters", maxNameLen))
	}

	email := strings.TrimSpace(f.Email)
	if email == "" {
		verr.add("email", "is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.add("email", "is not a valid email address")
	}

	phone := strings.TrimSpace(f.Phone)
	if phone != "" && !validPhone(phone) {
		verr.add("phone", "must contain 8 to 15 digits")
	}

	postcode := area.NormalizePostcode(f.Postcode)
	switch {
	case postcode == "":
		verr.add("postcode", "is required")
	case !area.ValidPostcode(postcode):
		verr.add("postcode", "must be 4 digits")
	}

	service := strings.TrimSpace(f.Service)
	if service != "" && len(v.services) > 0 {
		if _, ok := v.services[service]; !ok {
			verr.add("service", "is not a service we offer")
		}
	}

	urgency := restorehq.Urgency(strings.ToLower(strings.TrimSpace(f.Urgency)))
	switch urgency {
	case "":
		urgency = restorehq.UrgencyStandard
	case restorehq.UrgencyStandard, restorehq.UrgencyEmergency:
	default:
		verr.add("urgency", "must be standard or emergency")
	}

	message := SanitizeMessage(f.Message)
	switch {
	case message == "":
		verr.add("message", "is required")
	case utf8.RuneCountInString(message) > maxMessageLen:
		verr.add("message", fmt.Sprintf("must be at most %d characters", maxMessageLen))
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}

	return &restorehq.Lead{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Postcode:  postcode,
		Service:   service,
		Urgency:   urgency,
		Message:   message,
		Serviced:  v.areas != nil && v.areas.IsServiced(postcode),
		CreatedAt: v.now().UTC(),
	}, nil
}

func validPhone(p string) bool {
	digits := 0
	for _, r := range p {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '+' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= minPhoneDigit && digits <= maxPhoneDigit
}
