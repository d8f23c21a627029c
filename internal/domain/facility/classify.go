package facility

import (
	"errors"
	"fmt"
	"math"

	"github.com/yanqian/surgecast/pkg/util"
)

// Escalation thresholds. Both comparisons are strict.
const (
	redEmergencyLoad    = 120.0
	redICUBeds          = 12.0
	yellowEmergencyLoad = 80.0
	yellowICUBeds       = 8.0
)

var workloadLevels = [...]StaffWorkload{WorkloadLow, WorkloadMedium, WorkloadHigh}

// ErrWorkloadIndex reports a staff workload class outside LOW..HIGH.
var ErrWorkloadIndex = errors.New("staff workload index out of range")

// ErrPredictionValue reports a predictor output that is negative or not finite.
var ErrPredictionValue = errors.New("invalid predictor output")

// AlertLevelFor picks the first matching tier, RED before YELLOW before GREEN.
// Either signal alone is enough to escalate.
func AlertLevelFor(emergencyLoad, icuBeds float64) AlertLevel {
	switch {
	case emergencyLoad > redEmergencyLoad || icuBeds > redICUBeds:
		return AlertRed
	case emergencyLoad > yellowEmergencyLoad || icuBeds > yellowICUBeds:
		return AlertYellow
	default:
		return AlertGreen
	}
}

// Recommendations returns the fixed action list for the tier.
func (l AlertLevel) Recommendations() []string {
	switch l {
	case AlertRed:
		return []string{
			"Increase staff by 20%",
			"Prepare additional ICU beds",
			"Activate emergency protocol",
		}
	case AlertYellow:
		return []string{
			"Monitor closely",
			"Prepare backup staff",
		}
	default:
		return []string{
			"Normal operations",
			"Maintain current staffing",
		}
	}
}

// Escalated reports whether the tier warrants a live alert.
func (l AlertLevel) Escalated() bool {
	return l == AlertRed || l == AlertYellow
}

// StaffWorkloadFromIndex maps the predictor class index onto its label.
func StaffWorkloadFromIndex(idx int) (StaffWorkload, error) {
	if idx < 0 || idx >= len(workloadLevels) {
		return "", fmt.Errorf("%w: %d", ErrWorkloadIndex, idx)
	}
	return workloadLevels[idx], nil
}

// Classify turns raw predictor output into an alert assessment. Tiers are
// decided on the unrounded values; only the reported numbers are rounded.
func Classify(p PredictionVector) (Assessment, error) {
	if err := checkPrediction("emergency_load", p.EmergencyLoad); err != nil {
		return Assessment{}, err
	}
	if err := checkPrediction("icu_beds", p.ICUBeds); err != nil {
		return Assessment{}, err
	}
	if err := checkPrediction("ventilator_demand", p.VentilatorDemand); err != nil {
		return Assessment{}, err
	}
	workload, err := StaffWorkloadFromIndex(p.StaffWorkload)
	if err != nil {
		return Assessment{}, err
	}
	level := AlertLevelFor(p.EmergencyLoad, p.ICUBeds)
	return Assessment{
		EmergencyLoad:    util.Round(p.EmergencyLoad, 1),
		ICUBeds:          util.Round(p.ICUBeds, 1),
		VentilatorDemand: util.Round(p.VentilatorDemand, 1),
		StaffWorkload:    workload,
		AlertLevel:       level,
		Recommendations:  level.Recommendations(),
	}, nil
}

func checkPrediction(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is not a finite number", ErrPredictionValue, name)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must be non-negative, got %v", ErrPredictionValue, name, v)
	}
	return nil
}
