package diagnosis

import (
	"errors"
	"testing"

	"vitalsboard/internal/ingest"
)

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name     string
		in       Metrics
		status   Status
		issues   int
		critical int
	}{
		{"all good", Metrics{LCP: "2.10s", CLS: "0.05", INP: "150ms", FCP: "1.2s", TTFB: "300ms"}, Excellent, 0, 0},
		{"placeholders ignored", Metrics{LCP: "-", CLS: "-", INP: "-", FCP: "-", TTFB: "-"}, Excellent, 0, 0},
		{"at threshold", Metrics{LCP: "2.5s", CLS: "0.1", INP: "200ms", FCP: "1.8s", TTFB: "800ms"}, Excellent, 0, 0},
		{"one warning", Metrics{LCP: "3.0s", CLS: "0.05"}, Warning, 1, 0},
		{"mixed", Metrics{LCP: "4.5s", CLS: "0.3", INP: "250ms", TTFB: "900ms"}, Critical, 4, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.in)
			if got.Status != tc.status || len(got.Issues) != tc.issues {
				t.Fatalf("got %s with %d issues: %+v", got.Status, len(got.Issues), got)
			}
			critical := 0
			for _, is := range got.Issues {
				if is.Severity == Critical {
					critical++
				}
			}
			if critical != tc.critical {
				t.Fatalf("critical = %d, want %d", critical, tc.critical)
			}
		})
	}
}

func TestEvaluateOrderAndSummary(t *testing.T) {
	got := Evaluate(Metrics{LCP: "3.0s", INP: "300ms", TTFB: "900ms"})
	want := []string{"TTFB", "LCP", "INP"}
	for i, is := range got.Issues {
		if is.Metric != want[i] {
			t.Fatalf("issue %d = %s, want %s", i, is.Metric, want[i])
		}
	}
	if got.Summary != "3 areas with room for improvement." {
		t.Fatalf("summary = %q", got.Summary)
	}
	one := Evaluate(Metrics{CLS: "0.5"})
	if one.Summary != "1 critical metric. Needs attention and monitoring." {
		t.Fatalf("summary = %q", one.Summary)
	}
}

func TestForRecord(t *testing.T) {
	rec := ingest.SiteRecord{
		Home:    ingest.Field{LCP: "5.0s"},
		Article: ingest.Article{LCP: "1.0s"},
		Desktop: ingest.Field{INP: "600ms"},
	}
	if r, _ := ForRecord(rec, "home"); r.Status != Critical {
		t.Fatalf("home = %s", r.Status)
	}
	if r, _ := ForRecord(rec, "article"); r.Status != Excellent {
		t.Fatalf("article = %s", r.Status)
	}
	if r, _ := ForRecord(rec, "desktop"); r.Status != Critical || r.Issues[0].Metric != "INP" {
		t.Fatalf("desktop = %+v", r)
	}
	if _, err := ForRecord(rec, "history"); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("err = %v", err)
	}
}
