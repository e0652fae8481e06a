package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// recordingTransport captures the last request for inspection.
type recordingTransport struct {
	lastReq *http.Request
}

func (rt *recordingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	rt.lastReq = r
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestAPIKeyTransport(t *testing.T) {
	t.Parallel()

	rec := &recordingTransport{}
	transport := &APIKeyTransport{Key: "k-1", HeaderName: "X-Api-Key", Base: rec}

	req, _ := http.NewRequest(http.MethodPost, "https://leads.example.com/leads", nil)
	resp, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()

	if got := rec.lastReq.Header.Get("X-Api-Key"); got != "k-1" {
		t.Errorf("X-Api-Key = %q, want k-1", got)
	}
	if req.Header.Get("X-Api-Key") != "" {
		t.Error("original request was mutated")
	}
}

func TestAuth_WrapTransport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		auth       Auth
		wantHeader string
		wantValue  string
	}{
		{"none", Auth{}, "Authorization", ""},
		{"default bearer", Auth{APIKey: "abc"}, "Authorization", "Bearer abc"},
		{"custom header", Auth{APIKey: "abc", Header: "X-Api-Key"}, "X-Api-Key", "abc"},
		{"custom prefix", Auth{APIKey: "abc", Header: "Authorization", Prefix: "Token "}, "Authorization", "Token abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &recordingTransport{}
			rt := tt.auth.WrapTransport(rec)

			req, _ := http.NewRequest(http.MethodGet, "https://crm.example.com/health", nil)
			resp, err := rt.RoundTrip(req)
			if err != nil {
				t.Fatalf("RoundTrip: %v", err)
			}
			resp.Body.Close()
			if got := rec.lastReq.Header.Get(tt.wantHeader); got != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.wantHeader, got, tt.wantValue)
			}
		})
	}
}

func TestAuth_ClientCredentials(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "client_credentials" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	var gotAuth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	auth := Auth{ClientID: "id", ClientSecret: "secret", TokenURL: tokenSrv.URL}
	client := &http.Client{Transport: auth.WrapTransport(http.DefaultTransport)}

	for range 2 {
		resp, err := client.Get(api.URL)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
	}

	if got, _ := gotAuth.Load().(string); got != "Bearer tok-1" {
		t.Errorf("Authorization = %q, want Bearer tok-1", got)
	}
	if n := tokenCalls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1 (cached)", n)
	}
}
