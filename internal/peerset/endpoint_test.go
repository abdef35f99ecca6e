package peerset

import "testing"

func TestCanonicalizeRewritesReservedHosts(t *testing.T) {
	cases := map[string]string{
		"localhost": "127.0.0.1:8000",
		"0.0.0.0":   "127.0.0.1:8000",
		"127.0.0.1": "127.0.0.1:8000",
	}
	for host, want := range cases {
		got, err := Canonicalize(host, 8000)
		if err != nil {
			t.Fatalf("Canonicalize(%q): %v", host, err)
		}
		if got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", host, got, want)
		}
	}
}

func TestCanonicalizeRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 65536} {
		if _, err := Canonicalize("example.com", port); err == nil {
			t.Errorf("Canonicalize(port=%d) err = nil, want error", port)
		}
	}
}

func TestParseEndpointRoundTrips(t *testing.T) {
	got, err := ParseEndpoint("localhost:9000")
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}
	if got != "127.0.0.1:9000" {
		t.Errorf("ParseEndpoint(localhost:9000) = %q, want 127.0.0.1:9000", got)
	}
}
