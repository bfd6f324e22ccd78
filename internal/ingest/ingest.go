// Package ingest rebuilds per-site records from the row store's CSV text.
// Every call is a full re-parse; nothing is cached between calls.
package ingest

import (
	"strings"

	"vitalsboard/internal/collector"
)

// legacyNames maps retired site names onto their current names so old rows
// join the same history.
var legacyNames = map[string]string{
	"Metro PR":       "Metro Puerto Rico",
	"Metro Colombia": "Publimetro Colombia",
}

// CanonicalName resolves legacy site names.
func CanonicalName(name string) string {
	if c, ok := legacyNames[name]; ok {
		return c
	}
	return name
}

type Field struct {
	URL   string `json:"url,omitempty"`
	Score int    `json:"score"`
	LCP   string `json:"lcp"`
	CLS   string `json:"cls"`
	INP   string `json:"inp"`
	FCP   string `json:"fcp,omitempty"`
	TTFB  string `json:"ttfb,omitempty"`
}

type Article struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Views int64  `json:"views"`
	Score int    `json:"score"`
	LCP   string `json:"lcp"`
	CLS   string `json:"cls"`
	INP   string `json:"inp"`
}

type Lab struct {
	Score      int    `json:"score"`
	LCP        string `json:"lcp"`
	CLS        string `json:"cls"`
	TBT        string `json:"tbt"`
	FCP        string `json:"fcp"`
	SpeedIndex string `json:"speedIndex"`
	TTFB       string `json:"ttfb"`
}

type Analytics struct {
	ActiveUsers        int64   `json:"activeUsers"`
	Views              int64   `json:"views"`
	BounceRate         float64 `json:"bounceRate"`
	AvgSessionDuration float64 `json:"avgSessionDuration"`
	Sessions           int64   `json:"sessions"`
}

// HistoryEntry is the per-row trend point kept for every ingested row.
type HistoryEntry struct {
	Date         string `json:"date"`
	Score        int    `json:"score"`
	DesktopScore int    `json:"desktopScore"`
	LabScore     int    `json:"labScore"`
	LCP          string `json:"lcp"`
	LabLCP       string `json:"labLcp"`
}

// SiteRecord is one site's latest snapshot plus its full history.
type SiteRecord struct {
	SiteName       string         `json:"siteName"`
	Date           string         `json:"date"`
	Method         string         `json:"method,omitempty"`
	Home           Field          `json:"home"`
	Article        Article        `json:"article"`
	Lab            Lab            `json:"lab"`
	Desktop        Field          `json:"desktop"`
	LabDesktop     Lab            `json:"labDesktop"`
	ArticleDesktop Field          `json:"articleDesktop"`
	Analytics      Analytics      `json:"analytics"`
	History        []HistoryEntry `json:"history"`

	// OutOfOrder is set when a row's date sorts before the previous row's
	// date for this site. History keeps encounter order regardless.
	OutOfOrder bool `json:"outOfOrder,omitempty"`
}

// Parse turns row-store text into one record per canonical site name, in
// order of first appearance. Rows fold in input order: the last row wins the
// current snapshot and every row adds a history entry.
func Parse(text string) []SiteRecord {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return []SiteRecord{}
	}

	headers := collector.Columns
	if first := lines[0]; strings.HasPrefix(first, "Date") || strings.HasPrefix(first, "Site") {
		headers = ParseLine(first)
		lines = lines[1:]
	}

	index := make(map[string]int)
	out := []SiteRecord{}
	for _, line := range lines {
		cur := toRecord(rowMap(headers, ParseLine(line)))
		if cur.SiteName == "" {
			continue
		}
		entry := HistoryEntry{
			Date:         cur.Date,
			Score:        cur.Home.Score,
			DesktopScore: cur.Desktop.Score,
			LabScore:     cur.Lab.Score,
			LCP:          cur.Home.LCP,
			LabLCP:       cur.Lab.LCP,
		}

		i, ok := index[cur.SiteName]
		if !ok {
			index[cur.SiteName] = len(out)
			cur.History = []HistoryEntry{entry}
			out = append(out, cur)
			continue
		}
		prev := &out[i]
		cur.History = append(prev.History, entry)
		cur.OutOfOrder = prev.OutOfOrder || (cur.Date != "" && prev.Date != "" && cur.Date < prev.Date)
		*prev = cur
	}
	return out
}

// ParseLine splits one CSV line. A double quote toggles quoting and is
// dropped; commas inside quotes are kept. Doubled quotes are not unescaped.
func ParseLine(line string) []string {
	var (
		out      []string
		cur      strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(out, cur.String())
}

func rowMap(headers, values []string) map[string]string {
	m := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(values) {
			m[strings.TrimSpace(h)] = strings.TrimSpace(values[i])
		}
	}
	return m
}

func toRecord(row map[string]string) SiteRecord {
	or := func(key, def string) string {
		if v := row[key]; v != "" {
			return v
		}
		return def
	}
	return SiteRecord{
		SiteName: CanonicalName(row["Site Name"]),
		Date:     row["Date"],
		Method:   row["Method Used"],
		Home: Field{
			URL:   row["Home URL"],
			Score: NormalizeScore(row["Home Score"]),
			LCP:   row["Home LCP"],
			CLS:   row["Home CLS"],
			INP:   row["Home INP"],
			FCP:   or("Home FCP", "-"),
			TTFB:  or("Home TTFB", "-"),
		},
		Article: Article{
			URL:   row["Top Story URL"],
			Title: row["Story Title"],
			Views: leadingInt(row["Story Views"]),
			Score: NormalizeScore(row["Story Score"]),
			LCP:   row["Story LCP"],
			CLS:   row["Story CLS"],
			INP:   row["Story INP"],
		},
		Lab: Lab{
			Score:      NormalizeScore(row["Lab Score"]),
			LCP:        row["Lab LCP"],
			CLS:        row["Lab CLS"],
			TBT:        row["Lab TBT"],
			FCP:        or("Lab FCP", "-"),
			SpeedIndex: or("Lab Speed Index", "-"),
			TTFB:       or("Lab TTFB", "-"),
		},
		Desktop: Field{
			Score: NormalizeScore(row["Desktop Score"]),
			LCP:   or("Desktop LCP", "-"),
			CLS:   or("Desktop CLS", "-"),
			INP:   or("Desktop INP", "-"),
			FCP:   or("Desktop FCP", "-"),
			TTFB:  or("Desktop TTFB", "-"),
		},
		LabDesktop: Lab{
			Score:      NormalizeScore(row["Lab Desktop Score"]),
			LCP:        or("Lab Desktop LCP", "-"),
			CLS:        or("Lab Desktop CLS", "-"),
			TBT:        or("Lab Desktop TBT", "-"),
			FCP:        or("Lab Desktop FCP", "-"),
			SpeedIndex: or("Lab Desktop Speed Index", "-"),
			TTFB:       or("Lab Desktop TTFB", "-"),
		},
		ArticleDesktop: Field{
			Score: NormalizeScore(row["Story Desktop Score"]),
			LCP:   or("Story Desktop LCP", "-"),
			CLS:   or("Story Desktop CLS", "-"),
			INP:   or("Story Desktop INP", "-"),
		},
		Analytics: Analytics{
			ActiveUsers:        leadingInt(row["Active Users"]),
			Views:              leadingInt(row["Total Views"]),
			BounceRate:         leadingFloat(row["Bounce Rate"]),
			AvgSessionDuration: leadingFloat(row["Avg Session Duration"]),
			Sessions:           leadingInt(row["Sessions"]),
		},
	}
}
