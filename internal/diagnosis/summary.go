package diagnosis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"vitalsboard/internal/ingest"
)

// ErrUnknownDevice is returned by Summarize for devices other than mobile and
// desktop.
var ErrUnknownDevice = errors.New("unknown device")

// Summary is the cross-site health picture for one device. Sites without a
// score (0) are left out of every figure except Total.
type Summary struct {
	Device    string `json:"device"`
	Average   int    `json:"average"`
	Status    Status `json:"status"`
	Evaluated int    `json:"evaluated"`
	Total     int    `json:"total"`
	Critical  int    `json:"critical"`
	Regular   int    `json:"regular"`
	Healthy   int    `json:"healthy"`

	// OtherAverage is the same average for the other device, nil when no
	// site has a score there.
	OtherAverage *int `json:"otherAverage"`
	// Trend is the current average minus the previous measurement's average,
	// taken over sites with a usable previous history entry.
	Trend *int `json:"trend"`

	Worst []Priority `json:"worst"`
}

// Priority is one of the lowest-scoring sites with its over-threshold metrics.
type Priority struct {
	SiteName string   `json:"siteName"`
	Score    int      `json:"score"`
	Issues   []string `json:"issues"`
}

type deviceView struct {
	field func(ingest.SiteRecord) ingest.Field
	prev  func(ingest.HistoryEntry) int
	other func(ingest.SiteRecord) int
}

var deviceViews = map[string]deviceView{
	"mobile": {
		field: func(r ingest.SiteRecord) ingest.Field { return r.Home },
		prev:  func(h ingest.HistoryEntry) int { return h.Score },
		other: func(r ingest.SiteRecord) int { return r.Desktop.Score },
	},
	"desktop": {
		field: func(r ingest.SiteRecord) ingest.Field { return r.Desktop },
		prev:  func(h ingest.HistoryEntry) int { return h.DesktopScore },
		other: func(r ingest.SiteRecord) int { return r.Home.Score },
	},
}

// Summarize computes the health summary over recs for device ("mobile" when
// empty).
func Summarize(recs []ingest.SiteRecord, device string) (Summary, error) {
	if device == "" {
		device = "mobile"
	}
	view, ok := deviceViews[device]
	if !ok {
		return Summary{}, fmt.Errorf("%w %q", ErrUnknownDevice, device)
	}

	sum := Summary{Device: device, Total: len(recs), Worst: []Priority{}}
	var valid []ingest.SiteRecord
	var scores, others, prev, curr []int
	for _, r := range recs {
		if s := view.other(r); s > 0 {
			others = append(others, s)
		}
		score := view.field(r).Score
		if score <= 0 {
			continue
		}
		valid = append(valid, r)
		scores = append(scores, score)
		switch {
		case score < 50:
			sum.Critical++
		case score < 90:
			sum.Regular++
		default:
			sum.Healthy++
		}
		if n := len(r.History); n >= 2 {
			if p := view.prev(r.History[n-2]); p > 0 {
				prev = append(prev, p)
				curr = append(curr, score)
			}
		}
	}

	sum.Evaluated = len(valid)
	sum.Average = average(scores)
	sum.Status = scoreStatus(sum.Average)
	if len(others) > 0 {
		avg := average(others)
		sum.OtherAverage = &avg
	}
	if len(prev) > 0 {
		diff := average(curr) - average(prev)
		sum.Trend = &diff
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return view.field(valid[i]).Score < view.field(valid[j]).Score
	})
	for i := 0; i < len(valid) && i < 3; i++ {
		f := view.field(valid[i])
		sum.Worst = append(sum.Worst, Priority{SiteName: valid[i].SiteName, Score: f.Score, Issues: coreIssues(f)})
	}
	return sum, nil
}

// average is the rounded mean, 0 for no values.
func average(v []int) int {
	if len(v) == 0 {
		return 0
	}
	total := 0
	for _, x := range v {
		total += x
	}
	return int(math.Round(float64(total) / float64(len(v))))
}

func scoreStatus(score int) Status {
	switch {
	case score >= 90:
		return Excellent
	case score >= 50:
		return Warning
	}
	return Critical
}

// coreIssues lists the core vitals over their warning threshold as
// "LCP: 3.10s" strings.
func coreIssues(f ingest.Field) []string {
	issues := []string{}
	for _, c := range []struct {
		metric string
		value  string
		limit  float64
	}{
		{"LCP", f.LCP, 2.5},
		{"CLS", f.CLS, 0.1},
		{"INP", f.INP, 200},
	} {
		if v, ok := ingest.Number(c.value); ok && v > c.limit {
			issues = append(issues, c.metric+": "+c.value)
		}
	}
	return issues
}
