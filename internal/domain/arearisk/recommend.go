package arearisk

const (
	lowAmbulanceWarning = "⚠️ Low ambulance availability - consider redistribution"
	lowICUWarning       = "⚠️ Limited ICU capacity - prepare overflow protocols"

	minAmbulances = 2.0
	minICUBeds    = 5.0
)

// Recommendations returns the base action list for the tier.
func (t RiskTier) Recommendations() []string {
	switch t {
	case TierCritical:
		return []string{
			"Deploy additional ambulances to area",
			"Increase staff presence at nearby hospitals",
			"Activate emergency coordination center",
			"Prepare for mass casualty response",
		}
	case TierHigh:
		return []string{
			"Monitor ambulance availability closely",
			"Ensure hospital surge capacity is ready",
			"Coordinate with local emergency services",
		}
	case TierMedium:
		return []string{
			"Maintain standard ambulance coverage",
			"Regular check-ins with local hospitals",
		}
	default:
		return []string{
			"Normal operations",
			"Routine ambulance maintenance and checks",
		}
	}
}

// Recommend returns the tier's actions followed by any resource warnings.
func Recommend(tier RiskTier, ambulances, icuBeds float64) []string {
	return WithResourceWarnings(tier.Recommendations(), ambulances, icuBeds)
}

// WithResourceWarnings appends capacity warnings to recs regardless of tier,
// ambulances first.
func WithResourceWarnings(recs []string, ambulances, icuBeds float64) []string {
	if ambulances < minAmbulances {
		recs = append(recs, lowAmbulanceWarning)
	}
	if icuBeds < minICUBeds {
		recs = append(recs, lowICUWarning)
	}
	return recs
}
