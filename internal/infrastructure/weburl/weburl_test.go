package weburl

import "testing"

func TestValidator(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"https://example.com/article1": true,
		"http://localhost:8080/x":      true,
		"ftp://files.example.org":      true,
		"example.com/article":          false,
		"/relative/path":               false,
		"https://":                     false,
		"":                             false,
		"http://[::1":                  false,
	}
	for in, want := range cases {
		if got := (Validator{}).IsValidURL(in); got != want {
			t.Fatalf("IsValidURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://example.com/article1":   "example.com",
		"https://news.example.org:8443/": "news.example.org:8443",
		"not a url":                      UnknownDomain,
		"http://[::1":                    UnknownDomain,
	}
	for in, want := range cases {
		if got := (Extractor{}).ExtractDomain(in); got != want {
			t.Fatalf("ExtractDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
