package arearisk

// RiskTier is the area-level severity tier.
type RiskTier string

const (
	TierLow      RiskTier = "LOW"
	TierMedium   RiskTier = "MEDIUM"
	TierHigh     RiskTier = "HIGH"
	TierCritical RiskTier = "CRITICAL"
)

// NightWindow selects how the overnight multiplier window is interpreted.
type NightWindow string

const (
	// NightLiteral requires hour >= 22 and hour <= 5, which no hour satisfies.
	NightLiteral NightWindow = "literal"
	// NightOvernight applies the multiplier from 22:00 through 05:59.
	NightOvernight NightWindow = "overnight"
)

// Valid reports whether w is a known mode.
func (w NightWindow) Valid() bool {
	return w == NightLiteral || w == NightOvernight
}

// Factors is the /predict-area-risk request body. Every field is optional.
type Factors struct {
	TrafficDensity       *float64   `json:"traffic_density"`
	IndustrialActivity   *float64   `json:"industrial_activity"`
	ElderlyPopulationPct *float64   `json:"elderly_population_pct"`
	ElderlyPopulation    *float64   `json:"elderly_population"`
	MedicalFacilities    *float64   `json:"medical_facilities"`
	CrimeRate            *float64   `json:"crime_rate"`
	Population           *float64   `json:"population"`
	TimeOfDay            *float64   `json:"time_of_day"`
	WeatherFactor        *float64   `json:"weather_factor"`
	AvailableResources   *Resources `json:"available_resources"`
}

// Resources describes capacity on hand in the area.
type Resources struct {
	Ambulances *float64 `json:"ambulances"`
	ICUBeds    *float64 `json:"icu_beds"`
}

// Inputs is a fully defaulted set of factors.
type Inputs struct {
	TrafficDensity       float64
	IndustrialActivity   float64
	ElderlyPopulationPct float64
	MedicalFacilities    float64
	CrimeRate            float64
	Population           float64
	TimeOfDay            float64
	WeatherFactor        float64
	Ambulances           float64
	ICUBeds              float64
}

// DefaultInputs are used for any factor the caller omits.
var DefaultInputs = Inputs{
	TrafficDensity:       5,
	IndustrialActivity:   5,
	ElderlyPopulationPct: 15,
	MedicalFacilities:    5,
	CrimeRate:            5,
	Population:           100000,
	TimeOfDay:            12,
	WeatherFactor:        1.0,
}

// Resolve fills omitted factors from DefaultInputs. elderly_population_pct wins
// over the legacy elderly_population key when both are present.
func (f Factors) Resolve() Inputs {
	in := DefaultInputs
	set(&in.TrafficDensity, f.TrafficDensity)
	set(&in.IndustrialActivity, f.IndustrialActivity)
	set(&in.ElderlyPopulationPct, f.ElderlyPopulation)
	set(&in.ElderlyPopulationPct, f.ElderlyPopulationPct)
	set(&in.MedicalFacilities, f.MedicalFacilities)
	set(&in.CrimeRate, f.CrimeRate)
	set(&in.Population, f.Population)
	set(&in.TimeOfDay, f.TimeOfDay)
	set(&in.WeatherFactor, f.WeatherFactor)
	if f.AvailableResources != nil {
		set(&in.Ambulances, f.AvailableResources.Ambulances)
		set(&in.ICUBeds, f.AvailableResources.ICUBeds)
	}
	return in
}

func set(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// Result is the unrounded output of the scorer.
type Result struct {
	Score             float64
	Tier              RiskTier
	TimeMultiplier    float64
	WeatherMultiplier float64
	PopulationFactor  float64
	EmergencyLoad     float64
}

// Assessment is the serialized area risk response.
type Assessment struct {
	AreaRiskScore          float64  `json:"area_risk_score"`
	RiskLevel              RiskTier `json:"risk_level"`
	RiskDescription        string   `json:"risk_description"`
	PredictedEmergencyLoad float64  `json:"predicted_emergency_load"`
	TimeMultiplier         float64  `json:"time_multiplier"`
	WeatherMultiplier      float64  `json:"weather_multiplier"`
	PopulationFactor       float64  `json:"population_factor"`
	Recommendations        []string `json:"recommendations"`
}

// Config tunes the scorer. The zero value scores with the literal night window.
type Config struct {
	NightWindow NightWindow
}
