package metricscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/insightboard/insightboard/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Upsert(ctx context.Context, userID int64, key string, value models.MetricValue, refreshedAt time.Time) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode metric %s: %w", key, err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO metrics_cache (user_id, metric_key, metric_value, last_refreshed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, metric_key) DO UPDATE
		SET metric_value = EXCLUDED.metric_value, last_refreshed_at = EXCLUDED.last_refreshed_at`,
		userID, key, raw, refreshedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert metric %s: %w", key, err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.Metric, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, metric_key, metric_value, last_refreshed_at
		FROM metrics_cache WHERE user_id = $1 ORDER BY metric_key`, userID)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Metric, error) {
		var (
			m   models.Metric
			raw []byte
		)
		if err := row.Scan(&m.UserID, &m.Key, &raw, &m.LastRefreshedAt); err != nil {
			return m, err
		}
		if err := json.Unmarshal(raw, &m.Value); err != nil {
			return m, fmt.Errorf("decode metric %s: %w", m.Key, err)
		}
		return m, nil
	})
}
