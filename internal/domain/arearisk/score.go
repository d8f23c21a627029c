package arearisk

import (
	"math"

	"github.com/yanqian/surgecast/pkg/util"
)

// Base risk weights.
const (
	weightTraffic    = 0.20
	weightIndustrial = 0.15
	weightElderly    = 0.25
	weightMedical    = 0.20
	weightCrime      = 0.20
)

const (
	rushHourMultiplier = 1.5
	nightMultiplier    = 1.3

	populationScale   = 50000.0
	maxPopulationLift = 2.0
	maxScore          = 10.0
	loadPerScorePoint = 2.5
)

// Tier thresholds, inclusive lower bounds.
const (
	criticalFrom = 7.0
	highFrom     = 5.0
	mediumFrom   = 3.0
)

// Score evaluates f and renders the response with rounded numbers and
// recommendations.
func Score(f Factors, cfg Config) Assessment {
	in := f.Resolve()
	res := Evaluate(in, cfg)
	return Assessment{
		AreaRiskScore:          util.Round(res.Score, 2),
		RiskLevel:              res.Tier,
		RiskDescription:        res.Tier.Description(),
		PredictedEmergencyLoad: util.Round(res.EmergencyLoad, 1),
		TimeMultiplier:         res.TimeMultiplier,
		WeatherMultiplier:      res.WeatherMultiplier,
		PopulationFactor:       res.PopulationFactor,
		Recommendations:        Recommend(res.Tier, in.Ambulances, in.ICUBeds),
	}
}

// Evaluate computes the unrounded score. Inputs are not range-checked: a
// negative factor yields a negative score.
func Evaluate(in Inputs, cfg Config) Result {
	base := weightTraffic*in.TrafficDensity +
		weightIndustrial*in.IndustrialActivity +
		weightElderly*(in.ElderlyPopulationPct/100) +
		weightMedical*(10-in.MedicalFacilities) +
		weightCrime*in.CrimeRate

	timeMult := TimeMultiplier(in.TimeOfDay, cfg.NightWindow)
	popFactor := math.Min(in.Population/populationScale, maxPopulationLift)
	score := math.Min(base*timeMult*in.WeatherFactor*popFactor, maxScore)
	tier := TierFor(score)

	return Result{
		Score:             score,
		Tier:              tier,
		TimeMultiplier:    timeMult,
		WeatherMultiplier: in.WeatherFactor,
		PopulationFactor:  popFactor,
		EmergencyLoad:     score * loadPerScorePoint,
	}
}

// TimeMultiplier returns 1.5 during the morning and evening rush, 1.3 inside
// the night window and 1.0 otherwise.
func TimeMultiplier(hour float64, window NightWindow) float64 {
	switch {
	case (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19):
		return rushHourMultiplier
	case inNightWindow(hour, window):
		return nightMultiplier
	default:
		return 1.0
	}
}

func inNightWindow(hour float64, window NightWindow) bool {
	if window == NightOvernight {
		return hour >= 22 || hour <= 5
	}
	return hour >= 22 && hour <= 5
}

// TierFor picks the highest tier whose lower bound the score reaches.
func TierFor(score float64) RiskTier {
	switch {
	case score >= criticalFrom:
		return TierCritical
	case score >= highFrom:
		return TierHigh
	case score >= mediumFrom:
		return TierMedium
	default:
		return TierLow
	}
}

// Description is the one-line summary for the tier.
func (t RiskTier) Description() string {
	switch t {
	case TierCritical:
		return "High emergency risk - prepare surge capacity"
	case TierHigh:
		return "Elevated emergency risk - monitor closely"
	case TierMedium:
		return "Moderate emergency risk - standard preparedness"
	default:
		return "Low emergency risk - normal operations"
	}
}

// Escalated reports whether the tier warrants a live alert.
func (t RiskTier) Escalated() bool {
	return t == TierCritical || t == TierHigh
}
