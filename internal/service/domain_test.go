package service

import "testing"

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"":                        "",
		"Example.COM":             "example.com",
		"https://share.example/x": "share.example",
		"share.example:8443":      "share.example:8443",
		"  spaced.example  ":      "spaced.example",
	}
	for in, want := range cases {
		if got := normalizeDomain(in); got != want {
			t.Errorf("normalizeDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	if got := buildURL(true, "a.dev", "/u", "x.png"); got != "https://a.dev/u/x.png" {
		t.Fatalf("got %s", got)
	}
	if got := buildURL(false, "a.dev", "/", "x.png"); got != "http://a.dev/x.png" {
		t.Fatalf("got %s", got)
	}
	if got := buildURL(false, "a.dev", "/files/", "x y"); got != "http://a.dev/files/x%20y" {
		t.Fatalf("got %s", got)
	}
}

func TestRandomDomain(t *testing.T) {
	if RandomDomain(nil) != "" {
		t.Fatalf("empty list yields empty domain")
	}
	domains := []string{"a", "b", "c"}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[RandomDomain(domains)] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expect every domain to be picked, saw %v", seen)
	}
}
