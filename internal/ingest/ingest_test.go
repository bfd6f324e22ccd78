package ingest

import (
	"reflect"
	"strings"
	"testing"

	"vitalsboard/internal/collector"
)

var header = strings.Join(collector.Columns, ",")

func row(cells map[int]string) string {
	r := make([]string, len(collector.Columns))
	for i, v := range cells {
		r[i] = v
	}
	return strings.Join(r, ",")
}

func TestParseExampleLine(t *testing.T) {
	line := "2026-01-01,Publimetro MX,https://www.publimetro.com.mx/,85,2.10s,0.05,150ms,,,,,,,Automated,80,2.3s,0.05,300ms,1.2s,200ms,1.5s,3.1s,150ms,,0,,,,,,,,,,,,,,,,,,1000,50000,0.45,120,800"
	recs := Parse(header + "\n" + line + "\n")
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	r := recs[0]
	if r.SiteName != "Publimetro MX" || r.Home.Score != 85 || r.Home.LCP != "2.10s" {
		t.Fatalf("unexpected record: %+v", r)
	}
	if len(r.History) != 1 {
		t.Fatalf("history = %v", r.History)
	}
	h := r.History[0]
	if h.Date != "2026-01-01" || h.Score != 85 || h.DesktopScore != 0 {
		t.Fatalf("history entry = %+v", h)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	text := header + "\n" +
		row(map[int]string{0: "2024-11-14", 1: "Alpha", 3: "80"}) + "\n" +
		row(map[int]string{0: "2024-11-15", 1: "Alpha", 3: "90"}) + "\n" +
		row(map[int]string{0: "2024-11-15", 1: "Beta", 3: "70"}) + "\n"
	a := Parse(text)
	b := Parse(text)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("re-ingestion differs:\n%+v\n%+v", a, b)
	}
	if len(a[0].History) != 2 {
		t.Fatalf("history length = %d", len(a[0].History))
	}
}

func TestParseMergesLegacyNames(t *testing.T) {
	text := header + "\n" +
		row(map[int]string{0: "2024-01-01", 1: "Metro PR", 3: "60"}) + "\n" +
		row(map[int]string{0: "2024-01-02", 1: "Metro Puerto Rico", 3: "75"}) + "\n" +
		row(map[int]string{0: "2024-01-02", 1: "Metro Colombia", 3: "50"}) + "\n"
	recs := Parse(text)
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].SiteName != "Metro Puerto Rico" || len(recs[0].History) != 2 {
		t.Fatalf("first record = %s with %d history", recs[0].SiteName, len(recs[0].History))
	}
	if recs[0].Home.Score != 75 {
		t.Fatalf("last row should win, score = %d", recs[0].Home.Score)
	}
	if recs[1].SiteName != "Publimetro Colombia" {
		t.Fatalf("second record = %s", recs[1].SiteName)
	}
}

func TestParseWithoutHeader(t *testing.T) {
	text := row(map[int]string{0: "2024-11-15", 1: "Alpha", 3: "88", 24: "77", 13: "66", 41: "12"})
	recs := Parse(text)
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	r := recs[0]
	if r.Home.Score != 88 || r.Desktop.Score != 77 || r.Lab.Score != 66 || r.Analytics.ActiveUsers != 12 {
		t.Fatalf("fallback columns misaligned: %+v", r)
	}
}

func TestParseDropsNamelessRowsAndBlankLines(t *testing.T) {
	text := header + "\n\n" +
		row(map[int]string{0: "2024-11-15", 3: "88"}) + "\n   \n" +
		row(map[int]string{0: "2024-11-15", 1: "Alpha"}) + "\r\n"
	recs := Parse(text)
	if len(recs) != 1 || recs[0].SiteName != "Alpha" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestParseEmpty(t *testing.T) {
	if recs := Parse(""); recs == nil || len(recs) != 0 {
		t.Fatalf("Parse(\"\") = %#v", recs)
	}
	if recs := Parse(header + "\n"); len(recs) != 0 {
		t.Fatalf("header only = %#v", recs)
	}
}

func TestParseDefaultsAndQuotes(t *testing.T) {
	text := header + "\n" + row(map[int]string{
		0: "2024-11-15", 1: "Alpha", 22: `"Breaking, news"`, 23: "1500", 43: "0.45", 44: "abc",
	})
	r := Parse(text)[0]
	if r.Article.Title != "Breaking, news" || r.Article.Views != 1500 {
		t.Fatalf("article = %+v", r.Article)
	}
	if r.Desktop.LCP != "-" || r.LabDesktop.SpeedIndex != "-" || r.ArticleDesktop.INP != "-" || r.Home.FCP != "-" {
		t.Fatalf("missing defaults: %+v", r)
	}
	if r.Analytics.BounceRate != 0.45 || r.Analytics.AvgSessionDuration != 0 {
		t.Fatalf("analytics = %+v", r.Analytics)
	}
}

func TestParseFlagsOutOfOrderDates(t *testing.T) {
	text := header + "\n" +
		row(map[int]string{0: "2024-11-15", 1: "Alpha"}) + "\n" +
		row(map[int]string{0: "2024-11-14", 1: "Alpha"}) + "\n"
	r := Parse(text)[0]
	if !r.OutOfOrder {
		t.Fatal("expected out-of-order flag")
	}
	if r.History[0].Date != "2024-11-15" || r.Date != "2024-11-14" {
		t.Fatalf("history must keep encounter order: %+v", r.History)
	}
}

func TestParseLine(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{`a,"b,c",d`, []string{"a", "b,c", "d"}},
		{"", []string{""}},
		{"a,,", []string{"a", "", ""}},
		{`"x ""y"" z"`, []string{"x y z"}},
	}
	for _, tc := range cases {
		if got := ParseLine(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeScore(t *testing.T) {
	cases := map[string]int{
		"":        0,
		"N/A":     0,
		"Error":   0,
		"No Data": 0,
		"85":      85,
		"72abc":   72,
	}
	for in, want := range cases {
		if got := NormalizeScore(in); got != want {
			t.Errorf("NormalizeScore(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2.10s", 2.1, true},
		{"150ms", 150, true},
		{"0.05", 0.05, true},
		{"-", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Root document took 200 ms", 0, false},
		{"0x10", 0, true},
		{"0X1p4s", 0, true},
	}
	for _, tc := range cases {
		got, ok := Number(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Number(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
