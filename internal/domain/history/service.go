package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/surgecast/pkg/errors"
	"github.com/yanqian/surgecast/pkg/util"
)

// RecordJobName identifies queued history writes.
const RecordJobName = "history.record"

var alertLevels = []string{"GREEN", "YELLOW", "RED"}

// Service exposes prediction history and analytics.
type Service interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, filter Filter) (Page, error)
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
	Analytics(ctx context.Context, days int) (Analytics, error)
	HandleJob(ctx context.Context, name string, payload []byte) error
}

type service struct {
	cfg    Config
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires up the history domain.
func NewService(cfg Config, repo Repository, logger *slog.Logger) Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 500
	}
	if cfg.AnalyticsDays <= 0 {
		cfg.AnalyticsDays = 7
	}
	return &service{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "history.service"),
		now:    util.NowUTC,
	}
}

func (s *service) Record(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		return apperrors.Wrap("invalid_input", "record id cannot be empty", nil)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return apperrors.Wrap("history_error", "failed to save prediction", err)
	}
	s.logger.Info("prediction recorded", "id", rec.ID, "alert_level", rec.AlertLevel, "scenario", rec.ScenarioName)
	return nil
}

func (s *service) List(ctx context.Context, filter Filter) (Page, error) {
	filter.AlertLevel = strings.ToUpper(strings.TrimSpace(filter.AlertLevel))
	if filter.AlertLevel != "" && !isAlertLevel(filter.AlertLevel) {
		return Page{}, apperrors.Wrap("invalid_input", fmt.Sprintf("unknown alert_level %q", filter.AlertLevel), nil)
	}
	if filter.Limit <= 0 {
		filter.Limit = s.cfg.DefaultLimit
	}
	if filter.Limit > s.cfg.MaxLimit {
		filter.Limit = s.cfg.MaxLimit
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Page-1 > math.MaxInt/filter.Limit {
		return Page{}, apperrors.Wrap("invalid_input", fmt.Sprintf("page %d is out of range", filter.Page), nil)
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return Page{}, apperrors.Wrap("invalid_input", "end_date must not be before start_date", nil)
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return Page{}, apperrors.Wrap("history_error", "failed to fetch predictions", err)
	}
	if records == nil {
		records = []Record{}
	}
	return Page{
		Predictions: records,
		Pagination: Pagination{
			Page:  filter.Page,
			Limit: filter.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		},
	}, nil
}

func (s *service) Get(ctx context.Context, id string) (Record, error) {
	parsed, err := parseID(id)
	if err != nil {
		return Record{}, err
	}
	rec, found, err := s.repo.Get(ctx, parsed)
	if err != nil {
		return Record{}, apperrors.Wrap("history_error", "failed to fetch prediction", err)
	}
	if !found {
		return Record{}, apperrors.Wrap("not_found", "prediction not found", nil)
	}
	return rec, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	parsed, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, parsed); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperrors.Wrap("not_found", "prediction not found", nil)
		}
		return apperrors.Wrap("history_error", "failed to delete prediction", err)
	}
	s.logger.Info("prediction deleted", "id", parsed)
	return nil
}

func (s *service) Analytics(ctx context.Context, days int) (Analytics, error) {
	if days < 0 {
		return Analytics{}, apperrors.Wrap("invalid_input", "days must be positive", nil)
	}
	if days == 0 {
		days = s.cfg.AnalyticsDays
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	records, err := s.repo.Since(ctx, since)
	if err != nil {
		return Analytics{}, apperrors.Wrap("history_error", "failed to fetch analytics", err)
	}
	return summarize(records), nil
}

// HandleJob decodes a queued record and stores it.
func (s *service) HandleJob(ctx context.Context, name string, payload []byte) error {
	if name != RecordJobName {
		s.logger.Warn("ignoring unknown job", "name", name)
		return nil
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return apperrors.Wrap("history_error", "malformed history job", err)
	}
	return s.Record(ctx, rec)
}

func summarize(records []Record) Analytics {
	out := Analytics{
		TotalPredictions:  len(records),
		AlertDistribution: make(map[string]int, len(alertLevels)),
		HourlyPatterns:    make(map[int]LoadBucket, 24),
		DailyPatterns:     make(map[int]LoadBucket, 7),
	}
	for _, level := range alertLevels {
		out.AlertDistribution[level] = 0
	}

	var (
		loadSum    float64
		icuSum     float64
		hourSums   [24]float64
		hourCounts [24]int
		daySums    [7]float64
		dayCounts  [7]int
	)
	for _, rec := range records {
		loadSum += rec.EmergencyLoad
		icuSum += rec.ICUBedsRequired
		if _, ok := out.AlertDistribution[rec.AlertLevel]; ok {
			out.AlertDistribution[rec.AlertLevel]++
		}
		if rec.HourOfDay >= 0 && rec.HourOfDay < 24 {
			hourSums[rec.HourOfDay] += rec.EmergencyLoad
			hourCounts[rec.HourOfDay]++
		}
		if rec.DayOfWeek >= 0 && rec.DayOfWeek < 7 {
			daySums[rec.DayOfWeek] += rec.EmergencyLoad
			dayCounts[rec.DayOfWeek]++
		}
	}
	if len(records) > 0 {
		out.AverageEmergencyLoad = loadSum / float64(len(records))
		out.AverageICUBeds = icuSum / float64(len(records))
	}
	for h := 0; h < 24; h++ {
		out.HourlyPatterns[h] = bucket(hourSums[h], hourCounts[h])
	}
	for d := 0; d < 7; d++ {
		out.DailyPatterns[d] = bucket(daySums[d], dayCounts[d])
	}
	return out
}

func bucket(sum float64, count int) LoadBucket {
	if count == 0 {
		return LoadBucket{}
	}
	return LoadBucket{Count: count, AvgLoad: sum / float64(count)}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apperrors.Wrap("invalid_input", "prediction id must be a UUID", err)
	}
	return id, nil
}

func isAlertLevel(level string) bool {
	for _, candidate := range alertLevels {
		if candidate == level {
			return true
		}
	}
	return false
}
