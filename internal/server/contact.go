package server

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/contact"
)

const (
	msgLeadServiced    = "Thanks, we have received your enquiry and will be in touch shortly."
	msgLeadOutsideArea = "Thanks, we have received your enquiry. Your postcode is outside our usual service area, so we will confirm availability when we call."
)

type contactResponse struct {
	ID       string `json:"id"`
	Serviced bool   `json:"serviced"`
	Message  string `json:"message"`
}

// handleContact accepts a contact-form submission as JSON or as an
// urlencoded form post and queues the lead for delivery.
func (s *server) handleContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := restorehq.ClientIPFromContext(ctx)

	if rl := s.deps.RateLimiter; rl != nil {
		if res := rl.Allow(ip); !res.Allowed {
			if s.deps.Metrics != nil {
				s.deps.Metrics.RateLimitRejects.Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfterSeconds()))
			writeError(w, r, restorehq.ErrRateLimited)
			return
		}
	}

	form, err := readForm(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if form.IsSpam() {
		// Bots get the same answer as people; nothing is delivered.
		slog.LogAttrs(ctx, slog.LevelInfo, "honeypot tripped",
			slog.String("client_ip", ip),
		)
		writeJSON(w, http.StatusAccepted, contactResponse{
			ID:      uuid.Must(uuid.NewV7()).String(),
			Message: msgLeadServiced,
		})
		return
	}

	lead, err := s.deps.Validator.Validate(form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lead.SourceIP = ip
	lead.RequestID = restorehq.RequestIDFromContext(ctx)

	s.deps.Leads.Enqueue(lead)
	if s.deps.Metrics != nil {
		s.deps.Metrics.LeadsReceived.WithLabelValues(string(lead.Urgency)).Inc()
	}
	slog.LogAttrs(ctx, slog.LevelInfo, "lead accepted",
		slog.String("lead_id", lead.ID),
		slog.String("postcode", lead.Postcode),
		slog.Bool("serviced", lead.Serviced),
		slog.String("urgency", string(lead.Urgency)),
	)

	msg := msgLeadOutsideArea
	if lead.Serviced {
		msg = msgLeadServiced
	}
	writeJSON(w, http.StatusAccepted, contactResponse{ID: lead.ID, Serviced: lead.Serviced, Message: msg})
}

// readForm decodes the submission according to its Content-Type.
func readForm(w http.ResponseWriter, r *http.Request) (contact.Form, error) {
	var f contact.Form
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return f, invalidBody(err)
		}
		f = contact.Form{
			Name:     r.PostFormValue("name"),
			Email:    r.PostFormValue("email"),
			Phone:    r.PostFormValue("phone"),
			Postcode: r.PostFormValue("postcode"),
			Service:  r.PostFormValue("service"),
			Urgency:  r.PostFormValue("urgency"),
			Message:  r.PostFormValue("message"),
			Website:  r.PostFormValue("website"),
		}
		return f, nil
	default:
		err := decodeJSON(w, r, &f)
		return f, err
	}
}
