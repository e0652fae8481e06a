package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/area"
)

const (
	msgServiced    = "Service is available in your area"
	msgNotServiced = "Sorry, we currently do not service this area"
)

// checkCacheControl lets the CDN serve coverage answers for an hour and
// revalidate in the background for two more.
var checkCacheControl = []string{"public, s-maxage=3600, stale-while-revalidate=7200"}

type postcodeCheckResponse struct {
	Postcode   string `json:"postcode"`
	IsServiced bool   `json:"isServiced"`
	Message    string `json:"message"`
}

// handleCheckPostcode answers whether a postcode is serviced. Malformed
// postcodes are simply not serviced.
func (s *server) handleCheckPostcode(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "postcode")
	// chi routes on RawPath when the request carries one, leaving the
	// param escaped; otherwise it is already decoded.
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}
	}
	postcode := area.NormalizePostcode(raw)
	serviced := s.deps.Areas.IsServiced(postcode)

	resp := postcodeCheckResponse{Postcode: postcode, IsServiced: serviced, Message: msgNotServiced}
	if serviced {
		resp.Message = msgServiced
	}
	if s.deps.Metrics != nil {
		label := "false"
		if serviced {
			label = "true"
		}
		s.deps.Metrics.PostcodeChecks.WithLabelValues(label).Inc()
	}

	w.Header()["Cache-Control"] = checkCacheControl
	writeJSON(w, http.StatusOK, resp)
}

type createAreaRequest struct {
	Name     string `json:"name"`
	Postcode string `json:"postcode"`
	Active   *bool  `json:"active"`
}

func (s *server) handleCreateArea(w http.ResponseWriter, r *http.Request) {
	var req createAreaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	active := req.Active == nil || *req.Active

	a, err := s.deps.Areas.Create(req.Name, req.Postcode, active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/areas/"+a.ID)
	writeJSON(w, http.StatusCreated, a)
}

type listAreasResponse struct {
	Areas []restorehq.ServiceArea `json:"areas"`
	Total int                     `json:"total"`
}

// handleListAreas returns active areas, or every area with ?all=true.
func (s *server) handleListAreas(w http.ResponseWriter, r *http.Request) {
	var areas []restorehq.ServiceArea
	if r.URL.Query().Get("all") == "true" {
		areas = s.deps.Areas.List()
	} else {
		areas = s.deps.Areas.ListActive()
	}
	if areas == nil {
		areas = []restorehq.ServiceArea{}
	}
	writeJSON(w, http.StatusOK, listAreasResponse{Areas: areas, Total: len(areas)})
}

func (s *server) handleGetArea(w http.ResponseWriter, r *http.Request) {
	a, ok := s.deps.Areas.FindByID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, fmt.Errorf("area %q: %w", chi.URLParam(r, "id"), restorehq.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type updateAreaRequest struct {
	Active *bool `json:"active"`
}

func (s *server) handleUpdateArea(w http.ResponseWriter, r *http.Request) {
	var req updateAreaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Active == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("active is required", "invalid_request_error"))
		return
	}
	a, err := s.deps.Areas.SetActive(chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
