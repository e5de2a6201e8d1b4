package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{
			name:    "proxy headers ignored when untrusted",
			remote:  "10.0.0.1:1",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9"},
			want:    "10.0.0.1",
		},
		{
			name:       "left-most forwarded for",
			remote:     "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"},
			trustProxy: true,
			want:       "203.0.113.9",
		},
		{
			name:       "cloudflare header wins",
			remote:     "10.0.0.1:1",
			headers:    map[string]string{"CF-Connecting-IP": "198.51.100.7", "X-Forwarded-For": "203.0.113.9"},
			trustProxy: true,
			want:       "198.51.100.7",
		},
		{
			name:       "x-real-ip fallback",
			remote:     "10.0.0.1:1",
			headers:    map[string]string{"X-Real-IP": "198.51.100.8"},
			trustProxy: true,
			want:       "198.51.100.8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", "192.0.2.10", " ", "garbage", "2001:db8::/32"})

	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"11.0.0.1", false},
		{"192.0.2.10", true},
		{"192.0.2.11", false},
		{"::ffff:10.9.9.9", true},
		{"2001:db8::42", true},
		{"2001:db9::1", false},
		{"not-an-ip", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("matcher built from nil should be empty")
	}
}
