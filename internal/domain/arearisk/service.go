package arearisk

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/yanqian/surgecast/internal/domain/alert"
	apperrors "github.com/yanqian/surgecast/pkg/errors"
	"github.com/yanqian/surgecast/pkg/metrics"
	"github.com/yanqian/surgecast/pkg/util"
)

const metricAssessments = "surgecast_area_assessments_total"

// Service exposes area risk scoring.
type Service interface {
	Assess(ctx context.Context, factors Factors) (Assessment, error)
}

type service struct {
	cfg      Config
	notifier alert.Notifier
	metrics  *metrics.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires up the area risk domain.
func NewService(cfg Config, notifier alert.Notifier, registry *metrics.Registry, logger *slog.Logger) Service {
	window := cfg.NightWindow
	if !window.Valid() {
		window = NightLiteral
	}
	if notifier == nil {
		notifier = alert.NopNotifier{}
	}
	registry.Describe(metricAssessments, "Area risk assessments by risk level.", "risk_level")
	return &service{
		cfg:      Config{NightWindow: window},
		notifier: notifier,
		metrics:  registry,
		logger:   logger.With("component", "arearisk.service"),
		now:      util.NowUTC,
	}
}

func (s *service) Assess(ctx context.Context, factors Factors) (Assessment, error) {
	if err := validate(factors.Resolve()); err != nil {
		return Assessment{}, apperrors.Wrap("invalid_input", err.Error(), err)
	}
	out := Score(factors, s.cfg)
	s.metrics.Inc(metricAssessments, string(out.RiskLevel))
	s.logger.Info("area risk assessment",
		"risk_level", out.RiskLevel,
		"score", out.AreaRiskScore,
		"time_multiplier", out.TimeMultiplier,
	)

	if out.RiskLevel.Escalated() {
		summary := fmt.Sprintf("area risk %s: score %.2f, predicted emergency load %.1f",
			out.RiskLevel, out.AreaRiskScore, out.PredictedEmergencyLoad)
		event := alert.NewEvent(alert.KindArea, string(out.RiskLevel), summary, out.Recommendations, s.now())
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.Warn("alert notification failed", "error", err, "event_id", event.ID)
		}
	}
	return out, nil
}

func validate(in Inputs) error {
	values := []struct {
		name  string
		value float64
	}{
		{"traffic_density", in.TrafficDensity},
		{"industrial_activity", in.IndustrialActivity},
		{"elderly_population_pct", in.ElderlyPopulationPct},
		{"medical_facilities", in.MedicalFacilities},
		{"crime_rate", in.CrimeRate},
		{"population", in.Population},
		{"time_of_day", in.TimeOfDay},
		{"weather_factor", in.WeatherFactor},
		{"available_resources.ambulances", in.Ambulances},
		{"available_resources.icu_beds", in.ICUBeds},
	}
	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%s must be a finite number", v.name)
		}
	}
	if in.TimeOfDay < 0 || in.TimeOfDay > 23 {
		return fmt.Errorf("time_of_day must be between 0 and 23")
	}
	return nil
}
