package vitals

// Percentiles are raw p75 values as reported by the field provider: LCP, FCP,
// INP and TTFB in milliseconds, CLS unitless. A nil pointer is a metric the
// provider did not report.
type Percentiles struct {
	LCP  *float64
	CLS  *float64
	INP  *float64
	FCP  *float64
	TTFB *float64
}

type penalty struct {
	threshold float64
	points    int
}

// Tiers stack: a value above both thresholds pays both penalties.
var (
	lcpPenalties  = []penalty{{2.5, 20}, {4.0, 30}}  // seconds
	clsPenalties  = []penalty{{0.1, 20}, {0.25, 30}} // unitless
	inpPenalties  = []penalty{{200, 20}, {500, 30}}  // ms
	fcpPenalties  = []penalty{{1.8, 10}, {3.0, 15}}  // seconds
	ttfbPenalties = []penalty{{800, 10}, {1800, 15}} // ms
)

// Score turns p75 percentiles into a 0-100 health score. It starts at 100 and
// subtracts the penalty of every threshold a present metric exceeds. This is a
// proxy, not the provider's own rating.
func Score(p Percentiles) int {
	score := 100
	score -= deduct(p.LCP, 1000, lcpPenalties)
	score -= deduct(p.CLS, 1, clsPenalties)
	score -= deduct(p.INP, 1, inpPenalties)
	score -= deduct(p.FCP, 1000, fcpPenalties)
	score -= deduct(p.TTFB, 1, ttfbPenalties)
	if score < 0 {
		return 0
	}
	return score
}

func deduct(v *float64, divisor float64, tiers []penalty) int {
	if v == nil {
		return 0
	}
	x := *v / divisor
	total := 0
	for _, t := range tiers {
		if x > t.threshold {
			total += t.points
		}
	}
	return total
}
