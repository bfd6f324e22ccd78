// Package vitals holds the measurement types shared by the collection
// pipeline and the synthetic field score.
package vitals

// Device is the measurement context of a sample.
type Device string

const (
	Mobile  Device = "mobile"
	Desktop Device = "desktop"
)

// FormFactor is the device name used by the field-data provider.
func (d Device) FormFactor() string {
	if d == Desktop {
		return "DESKTOP"
	}
	return "PHONE"
}

// Strategy is the device name used by the lab-audit provider.
func (d Device) Strategy() string {
	if d == Desktop {
		return "DESKTOP"
	}
	return "MOBILE"
}

// Outcome tags how a fetch ended.
type Outcome int

const (
	// OK means the provider answered with data.
	OK Outcome = iota
	// Unavailable means the provider answered but had nothing for the slice
	// (insufficient traffic, no audit payload).
	Unavailable
	// Failed means the call itself failed (network, status, decode).
	Failed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Unavailable:
		return "unavailable"
	default:
		return "failed"
	}
}

// Placeholder is the display value for a metric that has no reading.
const Placeholder = "-"

// FieldSample is the real-user p75 reading for one URL and device.
// Display fields are pre-formatted ("2.10s", "150ms"); CLS keeps the
// provider's raw value.
type FieldSample struct {
	Outcome Outcome
	Cause   error

	Score int
	LCP   string
	CLS   string
	INP   string
	FCP   string
	TTFB  string
}

// LabSample is a single synthetic audit for one URL and device. Values are the
// provider's display strings.
type LabSample struct {
	Outcome Outcome
	Cause   error

	Score      int
	LCP        string
	CLS        string
	TBT        string
	FCP        string
	SpeedIndex string
	TTFB       string
}

// TopArticle is the most viewed article of the previous day. An empty URL
// means no page qualified.
type TopArticle struct {
	Outcome Outcome
	Cause   error

	URL   string
	Title string
	Views int64
}

// GlobalAnalytics holds the previous day's traffic totals for a property.
type GlobalAnalytics struct {
	Outcome Outcome
	Cause   error

	ActiveUsers        int64
	Views              int64
	BounceRate         float64
	AvgSessionDuration float64
	Sessions           int64
}

// UnavailableField is the sample used when the provider had no record.
func UnavailableField(cause error) FieldSample {
	return FieldSample{Outcome: Unavailable, Cause: cause, LCP: Placeholder, CLS: Placeholder, INP: Placeholder, FCP: Placeholder, TTFB: Placeholder}
}

// FailedField is the sample used when the field call could not complete.
func FailedField(cause error) FieldSample {
	return FieldSample{Outcome: Failed, Cause: cause, LCP: Placeholder, CLS: Placeholder, INP: Placeholder, FCP: Placeholder, TTFB: Placeholder}
}

// EmptyLab is the "ran but nothing to report" audit.
func EmptyLab() LabSample {
	return LabSample{Outcome: Unavailable, LCP: "0", CLS: "0", TBT: "0", FCP: Placeholder, SpeedIndex: Placeholder, TTFB: Placeholder}
}

// FailedLab is the audit used after retries are exhausted or the call broke.
func FailedLab(cause error) LabSample {
	return LabSample{Outcome: Failed, Cause: cause, LCP: "0", CLS: "0", TBT: "0", FCP: Placeholder, SpeedIndex: Placeholder, TTFB: Placeholder}
}
