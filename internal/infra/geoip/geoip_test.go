package geoip

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newLookupServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestResolve_LocalAddressesSkipLookup(t *testing.T) {
	srv, calls := newLookupServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","country":"Nowhere"}`)
	})
	r := NewResolver(Config{BaseURL: srv.URL})

	for _, ip := range []string{"127.0.0.1", "192.168.1.20", "10.1.2.3", "172.16.0.9", "::1", "0.0.0.0", "", "localhost", "::ffff:192.168.0.4"} {
		if got := r.Resolve(context.Background(), ip); got != Local {
			t.Errorf("Resolve(%q) = %+v, want Local", ip, got)
		}
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Fatalf("expected no lookups, got %d", n)
	}
}

func TestResolve_PublicAddress(t *testing.T) {
	srv, calls := newLookupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/json/8.8.8.8") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"status":"success","country":"United States","countryCode":"US","regionName":"California","city":"Mountain View","lat":37.4,"lon":-122.1}`)
	})
	r := NewResolver(Config{BaseURL: srv.URL})

	got := r.Resolve(context.Background(), "8.8.8.8")
	want := Info{Country: "United States", CountryCode: "US", City: "Mountain View", Region: "California", Lat: 37.4, Lon: -122.1}
	if got != want {
		t.Fatalf("Resolve = %+v, want %+v", got, want)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Fatalf("expected 1 lookup, got %d", n)
	}
}

func TestResolve_FailuresDegradeToUnknown(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `not json`)
		}},
		{"provider failure", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"fail","message":"reserved range"}`)
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			fmt.Fprint(w, `{"status":"success","country":"Late"}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newLookupServer(t, tt.handler)
			r := NewResolver(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
			if got := r.Resolve(context.Background(), "1.1.1.1"); got != Unknown {
				t.Fatalf("Resolve = %+v, want Unknown", got)
			}
		})
	}
}

func TestResolve_UnreachableService(t *testing.T) {
	r := NewResolver(Config{BaseURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond})
	if got := r.Resolve(context.Background(), "1.1.1.1"); got != Unknown {
		t.Fatalf("Resolve = %+v, want Unknown", got)
	}
}

func TestIsLocal(t *testing.T) {
	tests := map[string]bool{
		"127.0.0.1":   true,
		"10.0.0.1":    true,
		"192.168.5.5": true,
		"fe80::1":     true,
		"8.8.8.8":     false,
		"2001:4860::": false,
		"not-an-ip":   false,
	}
	for ip, want := range tests {
		if got := IsLocal(ip); got != want {
			t.Errorf("IsLocal(%q) = %v, want %v", ip, got, want)
		}
	}
}
