package facility

import (
	"time"

	"github.com/google/uuid"
)

// AlertLevel is the facility-level severity tier.
type AlertLevel string

const (
	AlertGreen  AlertLevel = "GREEN"
	AlertYellow AlertLevel = "YELLOW"
	AlertRed    AlertLevel = "RED"
)

// StaffWorkload is the label produced from the predictor's workload class index.
type StaffWorkload string

const (
	WorkloadLow    StaffWorkload = "LOW"
	WorkloadMedium StaffWorkload = "MEDIUM"
	WorkloadHigh   StaffWorkload = "HIGH"
)

// Features is the /predict request body. Every field is mandatory; pointers
// distinguish an explicit zero from a missing key.
type Features struct {
	DayOfWeek           *float64 `json:"day_of_week"`
	HourOfDay           *float64 `json:"hour_of_day"`
	PreviousLoad        *float64 `json:"previous_load"`
	SeasonalIndicator   *float64 `json:"seasonal_indicator"`
	AccidentProbability *float64 `json:"accident_probability"`
}

// FeatureVector is the validated input handed to a Predictor.
type FeatureVector struct {
	DayOfWeek           float64 `json:"day_of_week"`
	HourOfDay           float64 `json:"hour_of_day"`
	PreviousLoad        float64 `json:"previous_load"`
	SeasonalIndicator   float64 `json:"seasonal_indicator"`
	AccidentProbability float64 `json:"accident_probability"`
}

// Values returns the features in model column order.
func (v FeatureVector) Values() [5]float64 {
	return [5]float64{v.DayOfWeek, v.HourOfDay, v.PreviousLoad, v.SeasonalIndicator, v.AccidentProbability}
}

// PredictionVector holds the four raw predictor outputs.
type PredictionVector struct {
	EmergencyLoad    float64
	ICUBeds          float64
	VentilatorDemand float64
	StaffWorkload    int
}

// Assessment is the serialized facility alert.
type Assessment struct {
	EmergencyLoad    float64       `json:"emergency_load"`
	ICUBeds          float64       `json:"icu_beds"`
	VentilatorDemand float64       `json:"ventilator_demand"`
	StaffWorkload    StaffWorkload `json:"staff_workload"`
	AlertLevel       AlertLevel    `json:"alert_level"`
	Recommendations  []string      `json:"recommendations"`
}

// RecordRequest is a prediction that should also be kept in history.
type RecordRequest struct {
	Features
	ScenarioName string `json:"scenario_name"`
}

// RecordedPrediction is returned after a prediction has been queued for history.
type RecordedPrediction struct {
	Success    bool       `json:"success"`
	Prediction Assessment `json:"prediction"`
	ID         uuid.UUID  `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Config wires runtime knobs for the facility service.
type Config struct {
	DefaultScenario string
	PredictTimeout  time.Duration
}
