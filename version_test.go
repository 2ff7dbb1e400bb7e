package battboot

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		numeric int
		display string
	}{
		{"v2.3.1", 231, "v2.3.1"},
		{"123", 123, "v1.2.3"},
		{"5", 500, "v5.0.0"},
		{"2", 200, "v2.0.0"},
		{"1.2.0", 120, "v1.2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if err != nil {
				t.Fatalf("ParseVersion(%q): %v", tt.in, err)
			}
			if v.Numeric != tt.numeric {
				t.Errorf("numeric = %d, want %d", v.Numeric, tt.numeric)
			}
			if v.Display != tt.display {
				t.Errorf("display = %q, want %q", v.Display, tt.display)
			}
		})
	}
}

func TestParseVersionMalformed(t *testing.T) {
	for _, in := range []string{"abc", "", "v..."} {
		if _, err := ParseVersion(in); err == nil {
			t.Errorf("ParseVersion(%q): expected error", in)
		}
	}
}

func TestNewerThan(t *testing.T) {
	tests := []struct {
		current, latest int
		newer           bool
	}{
		{120, 123, true},
		{123, 123, false},
		{123, 120, false},
	}
	for _, tt := range tests {
		current := FirmwareVersion{Numeric: tt.current}
		latest := FirmwareVersion{Numeric: tt.latest}
		if got := latest.NewerThan(current); got != tt.newer {
			t.Errorf("latest %d newer than current %d = %v, want %v", tt.latest, tt.current, got, tt.newer)
		}
	}
}

func TestNewerThanAcrossDigitLengths(t *testing.T) {
	// A short marker must order by its padded form: "2" is v2.0.0 and
	// newer than "1.2.0", not 2 < 120.
	current, err := ParseVersion("1.2.0")
	if err != nil {
		t.Fatal(err)
	}
	latest, err := ParseVersion("2")
	if err != nil {
		t.Fatal(err)
	}
	if !latest.NewerThan(current) {
		t.Errorf("%s (numeric %d) not newer than %s (numeric %d)",
			latest.Display, latest.Numeric, current.Display, current.Numeric)
	}
	if current.NewerThan(latest) {
		t.Error("ordering inverted across digit lengths")
	}
}

func TestHTTPCatalogLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/PCBv16/firmware/latest" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("123\n"))
	}))
	defer srv.Close()

	catalog := &HTTPCatalog{BaseURL: srv.URL + "/PCBv%d/firmware/%s", Client: srv.Client()}
	v, err := catalog.Latest(16)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if v.Numeric != 123 || v.Display != "v1.2.3" {
		t.Errorf("got %+v, want numeric 123 display v1.2.3", v)
	}

	if _, err := catalog.Latest(99); err == nil {
		t.Error("expected error for unknown board revision")
	}
}

func TestHTTPCatalogLatestShortMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("5"))
	}))
	defer srv.Close()

	catalog := &HTTPCatalog{BaseURL: srv.URL + "/PCBv%d/firmware/%s", Client: srv.Client()}
	v, err := catalog.Latest(16)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if v.Numeric != 500 || v.Display != "v5.0.0" {
		t.Errorf("got %+v, want numeric 500 display v5.0.0", v)
	}
}
