package linear

import (
	"encoding/json"
	"fmt"
	"math"
)

// Regression is an intercept plus one coefficient per feature, in the order
// day_of_week, hour_of_day, previous_load, seasonal_indicator, accident_probability.
type Regression struct {
	Intercept    float64    `json:"intercept"`
	Coefficients [5]float64 `json:"coefficients"`
}

// Apply evaluates the regression for x.
func (r Regression) Apply(x [5]float64) float64 {
	y := r.Intercept
	for i, c := range r.Coefficients {
		y += c * x[i]
	}
	return y
}

// Classifier scores like a Regression and buckets the result: below
// Thresholds[0] is class 0, below Thresholds[1] is class 1, otherwise 2.
type Classifier struct {
	Regression
	Thresholds [2]float64 `json:"thresholds"`
}

// Class returns the bucket index for x.
func (c Classifier) Class(x [5]float64) int {
	score := c.Apply(x)
	switch {
	case score < c.Thresholds[0]:
		return 0
	case score < c.Thresholds[1]:
		return 1
	default:
		return 2
	}
}

// Model is the serialized artifact.
type Model struct {
	Version          string     `json:"version"`
	EmergencyLoad    Regression `json:"emergency_load"`
	ICUBeds          Regression `json:"icu_beds"`
	VentilatorDemand Regression `json:"ventilator_demand"`
	StaffWorkload    Classifier `json:"staff_workload"`
}

// DefaultModel is used when no artifact is configured. Coefficients track the
// synthetic hospital dataset: load is driven mostly by the previous load,
// with seasonal and accident pressure on top.
func DefaultModel() Model {
	return Model{
		Version: "builtin-1",
		EmergencyLoad: Regression{
			Intercept:    6,
			Coefficients: [5]float64{0.6, 0.35, 0.78, 24, 46},
		},
		ICUBeds: Regression{
			Intercept:    0.4,
			Coefficients: [5]float64{0.05, 0.02, 0.085, 2.6, 5.2},
		},
		VentilatorDemand: Regression{
			Intercept:    0.1,
			Coefficients: [5]float64{0.02, 0.01, 0.04, 1.4, 3.1},
		},
		StaffWorkload: Classifier{
			Regression: Regression{
				Intercept:    6,
				Coefficients: [5]float64{0.6, 0.35, 0.78, 24, 46},
			},
			Thresholds: [2]float64{70, 110},
		},
	}
}

// Decode parses and validates an artifact.
func Decode(data []byte) (Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return Model{}, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Validate rejects non-finite parameters and unordered thresholds.
func (m Model) Validate() error {
	regs := map[string]Regression{
		"emergency_load":    m.EmergencyLoad,
		"icu_beds":          m.ICUBeds,
		"ventilator_demand": m.VentilatorDemand,
		"staff_workload":    m.StaffWorkload.Regression,
	}
	for name, r := range regs {
		if !finite(r.Intercept) {
			return fmt.Errorf("%s intercept is not finite", name)
		}
		for _, c := range r.Coefficients {
			if !finite(c) {
				return fmt.Errorf("%s coefficient is not finite", name)
			}
		}
	}
	t := m.StaffWorkload.Thresholds
	if !finite(t[0]) || !finite(t[1]) || t[0] > t[1] {
		return fmt.Errorf("staff_workload thresholds must be finite and ascending")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
