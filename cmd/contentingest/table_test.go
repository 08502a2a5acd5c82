package main

import (
	"strings"
	"testing"
	"time"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/usecase"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{col("A"), col("B").right()}, [][]string{{"only"}})
	if !strings.Contains(out, "only") {
		t.Fatalf("row missing from table:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatalf("expected empty output without columns")
	}
}

func TestRenderTableWrapsWideColumns(t *testing.T) {
	long := "alpha beta gamma delta epsilon zeta"
	out := renderTable([]column{col("Title").wrap(12)}, [][]string{{long}})
	if strings.Contains(out, long) {
		t.Fatalf("expected %q to be wrapped:\n%s", long, out)
	}
	for _, word := range strings.Fields(long) {
		if !strings.Contains(out, word) {
			t.Fatalf("expected %q in:\n%s", word, out)
		}
	}
}

func TestRenderReports(t *testing.T) {
	reports := []usecase.Report{
		{
			RunID:   "01HRUN",
			Trigger: "fax",
			Status:  domain.RunHaltedWithErrors,
			State:   domain.State{Errors: []string{"Unknown trigger_type: fax"}},
		},
		{
			RunID:   "01HOK",
			Trigger: "rss",
			Status:  domain.RunCompleted,
			State: domain.State{
				Source:         "rss_feed",
				URL:            "https://example.com/a",
				Title:          domain.Ptr("Court rules"),
				Classification: &domain.Classification{Tag: "Legal"},
				Saved:          true,
			},
		},
	}

	out := renderReports(reports)
	for _, want := range []string{
		"01HRUN", "halted_with_errors", "Unknown trigger_type: fax",
		"https://example.com/a", "Court rules", "Legal",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestRenderRuns(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	out := renderRuns([]domain.RunRecord{{
		RunID:       "01HRUN",
		TriggerType: "api",
		Status:      domain.RunCompleted,
		Source:      "court_listener",
		Saved:       true,
		StartedAt:   start,
		FinishedAt:  start.Add(1500 * time.Millisecond),
	}})
	for _, want := range []string{"court_listener", "completed", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}
