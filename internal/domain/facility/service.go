package facility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/surgecast/internal/domain/alert"
	"github.com/yanqian/surgecast/internal/domain/history"
	apperrors "github.com/yanqian/surgecast/pkg/errors"
	"github.com/yanqian/surgecast/pkg/metrics"
	"github.com/yanqian/surgecast/pkg/util"
)

const (
	metricAssessments       = "surgecast_facility_assessments_total"
	metricPredictorFailures = "surgecast_predictor_failures_total"
)

// Service exposes facility alert predictions.
type Service interface {
	Predict(ctx context.Context, features Features) (Assessment, error)
	PredictAndRecord(ctx context.Context, req RecordRequest) (RecordedPrediction, error)
}

// Predictor produces raw demand estimates for a feature vector.
type Predictor interface {
	Predict(ctx context.Context, features FeatureVector) (PredictionVector, error)
}

// Recorder keeps a prediction in history.
type Recorder interface {
	Record(ctx context.Context, rec history.Record) error
}

type service struct {
	cfg       Config
	predictor Predictor
	recorder  Recorder
	notifier  alert.Notifier
	metrics   *metrics.Registry
	logger    *slog.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewService wires up the facility domain.
func NewService(cfg Config, predictor Predictor, recorder Recorder, notifier alert.Notifier, registry *metrics.Registry, logger *slog.Logger) Service {
	if cfg.DefaultScenario == "" {
		cfg.DefaultScenario = "Manual Prediction"
	}
	if notifier == nil {
		notifier = alert.NopNotifier{}
	}
	registry.Describe(metricAssessments, "Facility assessments by alert level.", "alert_level")
	registry.Describe(metricPredictorFailures, "Predictor calls that returned an error.", "")
	return &service{
		cfg:       cfg,
		predictor: predictor,
		recorder:  recorder,
		notifier:  notifier,
		metrics:   registry,
		logger:    logger.With("component", "facility.service"),
		now:       util.NowUTC,
		newID:     uuid.New,
	}
}

func (s *service) Predict(ctx context.Context, features Features) (Assessment, error) {
	vec, err := features.Vector()
	if err != nil {
		return Assessment{}, apperrors.Wrap("invalid_input", err.Error(), err)
	}
	return s.assess(ctx, vec)
}

func (s *service) PredictAndRecord(ctx context.Context, req RecordRequest) (RecordedPrediction, error) {
	vec, err := req.Features.Vector()
	if err != nil {
		return RecordedPrediction{}, apperrors.Wrap("invalid_input", err.Error(), err)
	}
	if err := checkRanges(vec); err != nil {
		return RecordedPrediction{}, apperrors.Wrap("invalid_input", err.Error(), err)
	}
	assessment, err := s.assess(ctx, vec)
	if err != nil {
		return RecordedPrediction{}, err
	}

	scenario := strings.TrimSpace(req.ScenarioName)
	if scenario == "" {
		scenario = s.cfg.DefaultScenario
	}
	rec := history.Record{
		ID:                  s.newID(),
		ScenarioName:        scenario,
		DayOfWeek:           int(vec.DayOfWeek),
		HourOfDay:           int(vec.HourOfDay),
		PreviousLoad:        vec.PreviousLoad,
		SeasonalIndicator:   vec.SeasonalIndicator,
		AccidentProbability: vec.AccidentProbability,
		EmergencyLoad:       assessment.EmergencyLoad,
		ICUBedsRequired:     assessment.ICUBeds,
		VentilatorDemand:    assessment.VentilatorDemand,
		StaffWorkload:       string(assessment.StaffWorkload),
		AlertLevel:          string(assessment.AlertLevel),
		Recommendations:     assessment.Recommendations,
		Timestamp:           s.now().UTC(),
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		if apperrors.CodeOf(err) != "" {
			return RecordedPrediction{}, err
		}
		return RecordedPrediction{}, apperrors.Wrap("history_error", "failed to save prediction", err)
	}
	return RecordedPrediction{
		Success:    true,
		Prediction: assessment,
		ID:         rec.ID,
		Timestamp:  rec.Timestamp,
	}, nil
}

func (s *service) assess(ctx context.Context, vec FeatureVector) (Assessment, error) {
	if s.cfg.PredictTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PredictTimeout)
		defer cancel()
	}
	raw, err := s.predictor.Predict(ctx, vec)
	if err != nil {
		s.metrics.Inc(metricPredictorFailures, "")
		s.logger.Error("predictor call failed", "error", err)
		return Assessment{}, apperrors.Wrap("predictor_error", "prediction service unavailable", err)
	}
	assessment, err := Classify(raw)
	if errors.Is(err, ErrPredictionValue) {
		s.metrics.Inc(metricPredictorFailures, "")
		s.logger.Error("predictor returned unusable output", "error", err)
		return Assessment{}, apperrors.Wrap("predictor_error", err.Error(), err)
	}
	if err != nil {
		return Assessment{}, apperrors.Wrap("invalid_input", err.Error(), err)
	}
	s.metrics.Inc(metricAssessments, string(assessment.AlertLevel))
	s.logger.Info("facility assessment",
		"alert_level", assessment.AlertLevel,
		"emergency_load", assessment.EmergencyLoad,
		"icu_beds", assessment.ICUBeds,
	)

	if assessment.AlertLevel.Escalated() {
		summary := fmt.Sprintf("facility alert %s: emergency load %.1f, ICU beds %.1f",
			assessment.AlertLevel, assessment.EmergencyLoad, assessment.ICUBeds)
		event := alert.NewEvent(alert.KindFacility, string(assessment.AlertLevel), summary, assessment.Recommendations, s.now())
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.Warn("alert notification failed", "error", err, "event_id", event.ID)
		}
	}
	return assessment, nil
}

// Vector checks that every feature is present and finite.
func (f Features) Vector() (FeatureVector, error) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"day_of_week", f.DayOfWeek},
		{"hour_of_day", f.HourOfDay},
		{"previous_load", f.PreviousLoad},
		{"seasonal_indicator", f.SeasonalIndicator},
		{"accident_probability", f.AccidentProbability},
	}
	var missing []string
	for _, field := range fields {
		if field.value == nil {
			missing = append(missing, field.name)
			continue
		}
		if math.IsNaN(*field.value) || math.IsInf(*field.value, 0) {
			return FeatureVector{}, fmt.Errorf("%s must be a finite number", field.name)
		}
	}
	if len(missing) > 0 {
		return FeatureVector{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return FeatureVector{
		DayOfWeek:           *f.DayOfWeek,
		HourOfDay:           *f.HourOfDay,
		PreviousLoad:        *f.PreviousLoad,
		SeasonalIndicator:   *f.SeasonalIndicator,
		AccidentProbability: *f.AccidentProbability,
	}, nil
}

func checkRanges(v FeatureVector) error {
	switch {
	case v.DayOfWeek < 0 || v.DayOfWeek > 6 || v.DayOfWeek != math.Trunc(v.DayOfWeek):
		return fmt.Errorf("day_of_week must be an integer between 0 and 6")
	case v.HourOfDay < 0 || v.HourOfDay > 23 || v.HourOfDay != math.Trunc(v.HourOfDay):
		return fmt.Errorf("hour_of_day must be an integer between 0 and 23")
	case v.PreviousLoad < 0:
		return fmt.Errorf("previous_load must be non-negative")
	case v.SeasonalIndicator < 0 || v.SeasonalIndicator > 1:
		return fmt.Errorf("seasonal_indicator must be between 0 and 1")
	case v.AccidentProbability < 0 || v.AccidentProbability > 1:
		return fmt.Errorf("accident_probability must be between 0 and 1")
	}
	return nil
}
