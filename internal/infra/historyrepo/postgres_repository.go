package historyrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/surgecast/internal/domain/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
	id                   UUID PRIMARY KEY,
	scenario_name        TEXT NOT NULL,
	day_of_week          SMALLINT NOT NULL,
	hour_of_day          SMALLINT NOT NULL,
	previous_load        DOUBLE PRECISION NOT NULL,
	seasonal_indicator   DOUBLE PRECISION NOT NULL,
	accident_probability DOUBLE PRECISION NOT NULL,
	emergency_load       DOUBLE PRECISION NOT NULL,
	icu_beds_required    DOUBLE PRECISION NOT NULL,
	ventilator_demand    DOUBLE PRECISION NOT NULL,
	staff_workload       TEXT NOT NULL,
	alert_level          TEXT NOT NULL,
	recommendations      TEXT[] NOT NULL DEFAULT '{}',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS predictions_created_at_idx ON predictions (created_at DESC);
CREATE INDEX IF NOT EXISTS predictions_alert_level_idx ON predictions (alert_level);
`

const recordColumns = `id, scenario_name, day_of_week, hour_of_day, previous_load, seasonal_indicator,
	accident_probability, emergency_load, icu_beds_required, ventilator_demand, staff_workload,
	alert_level, recommendations, created_at`

// PostgresRepository persists history in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the predictions table when it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Insert stores a record.
func (r *PostgresRepository) Insert(ctx context.Context, rec history.Record) error {
	recs := rec.Recommendations
	if recs == nil {
		recs = []string{}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO predictions (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, rec.ScenarioName, rec.DayOfWeek, rec.HourOfDay, rec.PreviousLoad, rec.SeasonalIndicator,
		rec.AccidentProbability, rec.EmergencyLoad, rec.ICUBedsRequired, rec.VentilatorDemand,
		rec.StaffWorkload, rec.AlertLevel, recs, rec.Timestamp)
	return err
}

// Get fetches a record by ID.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (history.Record, bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM predictions WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return history.Record{}, false, nil
	}
	if err != nil {
		return history.Record{}, false, err
	}
	return rec, true, nil
}

// List returns one page of matching records, newest first, and the total match count.
func (r *PostgresRepository) List(ctx context.Context, filter history.Filter) ([]history.Record, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM predictions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := filter.Offset()
	if offset < 0 || offset >= total || filter.Limit <= 0 {
		return []history.Record{}, total, nil
	}

	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM predictions%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		recordColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	records, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Since returns every record at or after since, newest first.
func (r *PostgresRepository) Since(ctx context.Context, since time.Time) ([]history.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM predictions
		WHERE created_at >= $1
		ORDER BY created_at DESC
	`, since)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Delete removes a record.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM predictions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return history.ErrNotFound
	}
	return nil
}

func buildWhere(filter history.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.AlertLevel != "" {
		args = append(args, filter.AlertLevel)
		clauses = append(clauses, fmt.Sprintf("alert_level = $%d", len(args)))
	}
	if filter.Start != nil {
		args = append(args, *filter.Start)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.End != nil {
		args = append(args, *filter.End)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collect(rows pgx.Rows) ([]history.Record, error) {
	defer rows.Close()
	records := make([]history.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (history.Record, error) {
	var rec history.Record
	err := row.Scan(
		&rec.ID, &rec.ScenarioName, &rec.DayOfWeek, &rec.HourOfDay, &rec.PreviousLoad,
		&rec.SeasonalIndicator, &rec.AccidentProbability, &rec.EmergencyLoad, &rec.ICUBedsRequired,
		&rec.VentilatorDemand, &rec.StaffWorkload, &rec.AlertLevel, &rec.Recommendations, &rec.Timestamp,
	)
	if err != nil {
		return history.Record{}, err
	}
	rec.Timestamp = rec.Timestamp.UTC()
	return rec, nil
}

var _ history.Repository = (*PostgresRepository)(nil)
