package notify

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// APIKeyTransport is an http.RoundTripper that sets a static API key
// header on every outbound request. Prefix is prepended to Key
// (e.g. "Bearer " for Authorization headers).
type APIKeyTransport struct {
	Key        string
	HeaderName string
	Prefix     string
	Base       http.RoundTripper
}

// RoundTrip clones the request and sets the auth header.
func (t *APIKeyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r2 := r.Clone(r.Context())
	r2.Header.Set(t.HeaderName, t.Prefix+t.Key)
	return t.base().RoundTrip(r2)
}

func (t *APIKeyTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// Auth selects how requests to an upstream are authenticated.
// ClientID takes precedence over APIKey; both empty means no auth.
type Auth struct {
	APIKey string
	Header string // default "Authorization"
	Prefix string // default "Bearer " when Header is Authorization

	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// WrapTransport layers the configured authentication over base.
// Client-credential tokens are fetched through base as well, and cached
// until shortly before they expire.
func (a Auth) WrapTransport(base http.RoundTripper) http.RoundTripper {
	switch {
	case a.ClientID != "":
		cc := &clientcredentials.Config{
			ClientID:     a.ClientID,
			ClientSecret: a.ClientSecret,
			TokenURL:     a.TokenURL,
			Scopes:       a.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: base})
		return &oauth2.Transport{Source: cc.TokenSource(ctx), Base: base}
	case a.APIKey != "":
		header := a.Header
		prefix := a.Prefix
		if header == "" {
			header = "Authorization"
			if prefix == "" {
				prefix = "Bearer "
			}
		}
		return &APIKeyTransport{Key: a.APIKey, HeaderName: header, Prefix: prefix, Base: base}
	default:
		return base
	}
}
