package collector

import (
	"strconv"

	"vitalsboard/internal/config"
	"vitalsboard/internal/vitals"
)

// Columns is the durable row layout shared by the row store and the ingestor.
// Never reorder: existing exports depend on the positions.
var Columns = []string{
	"Date", "Site Name", "Home URL",
	"Home Score", "Home LCP", "Home CLS", "Home INP",
	"Top Story URL", "Story Score", "Story LCP", "Story CLS", "Story INP",
	"Method Used",
	"Lab Score", "Lab LCP", "Lab CLS", "Lab TBT",
	"Home FCP", "Home TTFB",
	"Lab FCP", "Lab Speed Index", "Lab TTFB",
	"Story Title", "Story Views",
	"Desktop Score", "Desktop LCP", "Desktop CLS", "Desktop INP", "Desktop FCP", "Desktop TTFB",
	"Lab Desktop Score", "Lab Desktop LCP", "Lab Desktop CLS", "Lab Desktop TBT",
	"Lab Desktop FCP", "Lab Desktop Speed Index", "Lab Desktop TTFB",
	"Story Desktop Score", "Story Desktop LCP", "Story Desktop CLS", "Story Desktop INP",
	"Active Users", "Total Views", "Bounce Rate", "Avg Session Duration", "Sessions",
}

// MethodAutomated tags rows written by the scheduled collector.
const MethodAutomated = "Automated"

// DateLayout is the row date format, in the collector's local time zone.
const DateLayout = "2006-01-02"

// SiteSnapshot is everything gathered for one site in one run.
type SiteSnapshot struct {
	Date string
	Site config.Site

	Home           vitals.FieldSample
	Desktop        vitals.FieldSample
	Lab            vitals.LabSample
	LabDesktop     vitals.LabSample
	Article        vitals.TopArticle
	Story          vitals.FieldSample
	StoryDesktop   vitals.FieldSample
	Analytics      vitals.GlobalAnalytics
	StoryCollected bool
}

// Row flattens the snapshot into the column order of Columns. Failures become
// the sentinel strings the sheet has always carried ("No Data", "Error").
func (s SiteSnapshot) Row() []string {
	story, storyDesktop := s.Story, s.StoryDesktop
	storyScore, storyDesktopScore := "", ""
	if s.StoryCollected {
		storyScore = fieldScore(story)
		storyDesktopScore = fieldScore(storyDesktop)
	} else {
		story = vitals.UnavailableField(nil)
		storyDesktop = vitals.UnavailableField(nil)
	}

	return []string{
		s.Date, s.Site.Name, s.Site.URL,
		fieldScore(s.Home), s.Home.LCP, s.Home.CLS, s.Home.INP,
		s.Article.URL, storyScore, story.LCP, story.CLS, story.INP,
		MethodAutomated,
		labScore(s.Lab), s.Lab.LCP, s.Lab.CLS, s.Lab.TBT,
		s.Home.FCP, s.Home.TTFB,
		s.Lab.FCP, s.Lab.SpeedIndex, s.Lab.TTFB,
		s.Article.Title, strconv.FormatInt(s.Article.Views, 10),
		fieldScore(s.Desktop), s.Desktop.LCP, s.Desktop.CLS, s.Desktop.INP, s.Desktop.FCP, s.Desktop.TTFB,
		labScore(s.LabDesktop), s.LabDesktop.LCP, s.LabDesktop.CLS, s.LabDesktop.TBT,
		s.LabDesktop.FCP, s.LabDesktop.SpeedIndex, s.LabDesktop.TTFB,
		storyDesktopScore, storyDesktop.LCP, storyDesktop.CLS, storyDesktop.INP,
		strconv.FormatInt(s.Analytics.ActiveUsers, 10),
		strconv.FormatInt(s.Analytics.Views, 10),
		strconv.FormatFloat(s.Analytics.BounceRate, 'f', -1, 64),
		strconv.FormatFloat(s.Analytics.AvgSessionDuration, 'f', -1, 64),
		strconv.FormatInt(s.Analytics.Sessions, 10),
	}
}

func fieldScore(f vitals.FieldSample) string {
	switch f.Outcome {
	case vitals.OK:
		return strconv.Itoa(f.Score)
	case vitals.Unavailable:
		return "No Data"
	default:
		return "Error"
	}
}

func labScore(l vitals.LabSample) string {
	if l.Outcome == vitals.Failed {
		return "Error"
	}
	return strconv.Itoa(l.Score)
}
