package util

import "testing"

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		remote    string
		want      string
	}{
		{"first public in chain", "10.0.0.2, 203.0.113.7, 198.51.100.1", "10.0.0.1", "203.0.113.7"},
		{"all private uses first", "10.0.0.2, 192.168.1.1", "127.0.0.1", "10.0.0.2"},
		{"single public", "198.51.100.4", "10.0.0.1", "198.51.100.4"},
		{"no header", "", "203.0.113.9", "203.0.113.9"},
		{"blank entries", " , ", "203.0.113.9", "203.0.113.9"},
		{"nothing known", "", "", "0.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClientIP(tt.forwarded, tt.remote); got != tt.want {
				t.Fatalf("ClientIP(%q, %q) = %q, want %q", tt.forwarded, tt.remote, got, tt.want)
			}
		})
	}
}
