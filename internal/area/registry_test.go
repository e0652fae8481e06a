package area

import (
	"errors"
	"testing"

	restorehq "github.com/eugener/restorehq/internal"
)

func newSeeded(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	seed := []struct {
		name, postcode string
		active         bool
	}{
		{"Brisbane", "4000", true},
		{"Gold Coast", "4217", true},
		{"Toowoomba", "4350", false},
	}
	for _, s := range seed {
		if _, err := r.Create(s.name, s.postcode, s.active); err != nil {
			t.Fatal(err)
		}
	}
	return r
}

func TestIsServiced(t *testing.T) {
	t.Parallel()
	r := newSeeded(t)

	tests := []struct {
		postcode string
		want     bool
	}{
		{"4000", true},
		{" 4000 ", true},
		{"40 00", true},
		{"４０００", true}, // full-width digits
		{"4350", false}, // inactive
		{"9999", false},
		{"", false},
		{"abcd", false},
	}
	for _, tt := range tests {
		if got := r.IsServiced(tt.postcode); got != tt.want {
			t.Errorf("IsServiced(%q) = %v, want %v", tt.postcode, got, tt.want)
		}
	}
}

func TestSetActiveFlipsWithoutRemoving(t *testing.T) {
	t.Parallel()
	r := newSeeded(t)

	a, ok := r.FindByPostcode("4000")
	if !ok {
		t.Fatal("4000 should exist")
	}
	if _, err := r.SetActive(a.ID, false); err != nil {
		t.Fatal(err)
	}
	if r.IsServiced("4000") {
		t.Error("deactivated area should not be serviced")
	}
	if r.Len() != 3 {
		t.Errorf("len = %d, want 3", r.Len())
	}
	if _, ok := r.FindByID(a.ID); !ok {
		t.Error("deactivated area should still be found by id")
	}

	if _, err := r.SetActive(a.ID, true); err != nil {
		t.Fatal(err)
	}
	if !r.IsServiced("4000") {
		t.Error("reactivated area should be serviced")
	}
}

func TestSetActiveUnknown(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	_, err := r.SetActive("nope", true)
	if !errors.Is(err, restorehq.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateConflict(t *testing.T) {
	t.Parallel()
	r := newSeeded(t)

	_, err := r.Create("Brisbane", "4000", true)
	if !errors.Is(err, restorehq.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	// Conflict is detected after normalisation too.
	_, err = r.Create("Brisbane CBD", " 4000", true)
	if !errors.Is(err, restorehq.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if r.Len() != 3 {
		t.Errorf("len = %d, want 3 after failed create", r.Len())
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	for _, tc := range []struct{ name, postcode string }{
		{"", "4000"},
		{"   ", "4000"},
		{"Brisbane", ""},
		{"Brisbane", "400"},
		{"Brisbane", "40000"},
		{"Brisbane", "40a0"},
	} {
		if _, err := r.Create(tc.name, tc.postcode, true); !errors.Is(err, restorehq.ErrValidation) {
			t.Errorf("Create(%q, %q) err = %v, want ErrValidation", tc.name, tc.postcode, err)
		}
	}
	if r.Len() != 0 {
		t.Errorf("len = %d, want 0", r.Len())
	}
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	a, err := r.Create("Brisbane", "4000", true)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Create("Logan", "4114", true)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids should be non-empty and distinct: %q, %q", a.ID, b.ID)
	}
	if a.Name != "Brisbane" || a.Postcode != "4000" || !a.Active {
		t.Errorf("unexpected area %+v", a)
	}
	if a.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}
}

func TestListActiveInsertionOrder(t *testing.T) {
	t.Parallel()
	r := newSeeded(t)

	active := r.ListActive()
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}
	if active[0].Postcode != "4000" || active[1].Postcode != "4217" {
		t.Errorf("order = [%s %s], want [4000 4217]", active[0].Postcode, active[1].Postcode)
	}
	// Non-destructive: mutating the returned slice leaves the registry alone.
	active[0].Active = false
	if !r.IsServiced("4000") {
		t.Error("ListActive must return copies")
	}
	if got := len(r.List()); got != 3 {
		t.Errorf("List = %d, want 3", got)
	}
}

func TestFindMissing(t *testing.T) {
	t.Parallel()
	r := newSeeded(t)
	if _, ok := r.FindByPostcode("9999"); ok {
		t.Error("9999 should be absent")
	}
	if _, ok := r.FindByID("missing"); ok {
		t.Error("missing id should be absent")
	}
}

func TestNormalizePostcode(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"4000":       "4000",
		" 4 0 0 0\t": "4000",
		"４０００":       "4000",
		"4000　": "4000",
		"":           "",
	}
	for in, want := range tests {
		if got := NormalizePostcode(in); got != want {
			t.Errorf("NormalizePostcode(%q) = %q, want %q", in, got, want)
		}
	}
}
