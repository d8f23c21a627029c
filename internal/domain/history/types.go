package history

import (
	"time"

	"github.com/google/uuid"
)

// Record is a persisted facility prediction together with the features that produced it.
type Record struct {
	ID                  uuid.UUID `json:"id"`
	ScenarioName        string    `json:"scenario_name"`
	DayOfWeek           int       `json:"day_of_week"`
	HourOfDay           int       `json:"hour_of_day"`
	PreviousLoad        float64   `json:"previous_load"`
	SeasonalIndicator   float64   `json:"seasonal_indicator"`
	AccidentProbability float64   `json:"accident_probability"`
	EmergencyLoad       float64   `json:"emergency_load"`
	ICUBedsRequired     float64   `json:"icu_beds_required"`
	VentilatorDemand    float64   `json:"ventilator_demand"`
	StaffWorkload       string    `json:"staff_workload"`
	AlertLevel          string    `json:"alert_level"`
	Recommendations     []string  `json:"recommendations"`
	Timestamp           time.Time `json:"timestamp"`
}

// Filter narrows a history listing.
type Filter struct {
	AlertLevel string
	Start      *time.Time
	End        *time.Time
	Limit      int
	Page       int
}

// Offset is the number of rows skipped before the requested page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches reports whether rec satisfies the level and date constraints.
func (f Filter) Matches(rec Record) bool {
	if f.AlertLevel != "" && rec.AlertLevel != f.AlertLevel {
		return false
	}
	if f.Start != nil && rec.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && rec.Timestamp.After(*f.End) {
		return false
	}
	return true
}

// Page is a single page of history.
type Page struct {
	Predictions []Record   `json:"predictions"`
	Pagination  Pagination `json:"pagination"`
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Analytics summarises recent predictions.
type Analytics struct {
	TotalPredictions     int                `json:"total_predictions"`
	AverageEmergencyLoad float64            `json:"average_emergency_load"`
	AverageICUBeds       float64            `json:"average_icu_beds"`
	AlertDistribution    map[string]int     `json:"alert_distribution"`
	HourlyPatterns       map[int]LoadBucket `json:"hourly_patterns"`
	DailyPatterns        map[int]LoadBucket `json:"daily_patterns"`
}

// LoadBucket is the count and mean emergency load for one hour or weekday.
type LoadBucket struct {
	Count   int     `json:"count"`
	AvgLoad float64 `json:"avg_load"`
}

// Config holds pagination and analytics defaults.
type Config struct {
	DefaultLimit  int
	MaxLimit      int
	AnalyticsDays int
}
