package restorehq

import (
	"context"
	"testing"
)

func TestValidKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind SearchKind
		want bool
	}{
		{"", true},
		{KindService, true},
		{KindArea, true},
		{KindArticle, true},
		{"video", false},
		{"Service", false},
	}
	for _, tt := range tests {
		if got := ValidKind(tt.kind); got != tt.want {
			t.Errorf("ValidKind(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestRequestMetaContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || ClientIPFromContext(ctx) != "" {
		t.Fatal("empty context should carry no metadata")
	}

	ctx = ContextWithRequestID(ctx, "req-1")
	same := ContextWithClientIP(ctx, "192.0.2.1")
	if same != ctx {
		t.Error("ContextWithClientIP should reuse the existing metadata")
	}
	if got := RequestIDFromContext(same); got != "req-1" {
		t.Errorf("request id = %q, want req-1", got)
	}
	if got := ClientIPFromContext(same); got != "192.0.2.1" {
		t.Errorf("client ip = %q, want 192.0.2.1", got)
	}
}

func TestClientIPFirst(t *testing.T) {
	t.Parallel()

	ctx := ContextWithClientIP(context.Background(), "198.51.100.4")
	ctx2 := ContextWithRequestID(ctx, "req-2")
	if ctx2 != ctx {
		t.Error("ContextWithRequestID should reuse the existing metadata")
	}
	if ClientIPFromContext(ctx2) != "198.51.100.4" || RequestIDFromContext(ctx2) != "req-2" {
		t.Error("metadata lost")
	}
}
