package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKeywordModelHasConcern(t *testing.T) {
	t.Parallel()

	m := NewKeywordModel()
	cases := []struct {
		title, description string
		want               bool
	}{
		{"Insurance Regulation Update 2024", "", true},
		{"Weekly roundup", "New CLIMATE guidelines", true},
		{"Cat pictures", "Nothing to see", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := m.HasConcern(context.Background(), tc.title, tc.description)
		if err != nil {
			t.Fatalf("HasConcern returned error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("HasConcern(%q, %q) = %v, want %v", tc.title, tc.description, got, tc.want)
		}
	}
}

func TestKeywordModelCustomKeywords(t *testing.T) {
	t.Parallel()

	m := NewKeywordModel(" Flood ", "")
	got, _ := m.HasConcern(context.Background(), "Flooding in the valley", "")
	if !got {
		t.Fatal("expected custom keyword to match")
	}
	got, _ = m.HasConcern(context.Background(), "Insurance news", "")
	if got {
		t.Fatal("default keywords must not apply when custom ones are given")
	}
}

func TestKeywordModelClassify(t *testing.T) {
	t.Parallel()

	m := NewKeywordModel()
	first, err := m.Classify(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if first.Tag != "Current" || len(first.Risks) != 2 || first.NAICSCodes[1] != "524113" {
		t.Fatalf("unexpected classification: %+v", first)
	}

	first.Risks[0] = "mutated"
	second, _ := m.Classify(context.Background(), "anything")
	if second.Risks[0] != "Climate Risk" {
		t.Fatal("Classify must return an independent copy")
	}
}

func TestClientClassifyAndConcern(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/classify":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tag": "Emerging", "risks": []string{"Cyber"}, "naics_codes": []string{"524210"}, "summary": "s",
			})
		case "/concern":
			_ = json.NewEncoder(w).Encode(map[string]bool{"concern": true})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "k")
	c.http = server.Client()

	got, err := c.Classify(context.Background(), "text")
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got.Tag != "Emerging" || got.NAICSCodes[0] != "524210" {
		t.Fatalf("unexpected classification: %+v", got)
	}

	concern, err := c.HasConcern(context.Background(), "t", "d")
	if err != nil {
		t.Fatalf("HasConcern returned error: %v", err)
	}
	if !concern {
		t.Fatal("expected concern")
	}

	c.apiKey = ""
	if _, err := c.Classify(context.Background(), "text"); err == nil {
		t.Fatal("expected error for unauthorized request")
	}
}
