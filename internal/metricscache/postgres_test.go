package metricscache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/insightboard/insightboard/internal/accounts"
	"github.com/insightboard/insightboard/internal/database"
	"github.com/insightboard/insightboard/internal/metricscache"
	"github.com/insightboard/insightboard/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_UpsertIdempotent(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping postgres metrics cache tests")
	}
	ctx := context.Background()
	require.NoError(t, database.RunMigrations(dsn))
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = pool.Exec(ctx, "TRUNCATE users RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	u, err := accounts.NewPostgresRepository(pool).UpsertWithCredential(ctx, models.Profile{ID: 42, Login: "alice"}, "c")
	require.NoError(t, err)

	repo := metricscache.NewPostgresRepository(pool)
	t1 := time.Now().UTC().Truncate(time.Millisecond)
	t2 := t1.Add(time.Minute)
	require.NoError(t, repo.Upsert(ctx, u.ID, models.MetricTotalRepos, models.MetricValue{"count": 7}, t1))
	require.NoError(t, repo.Upsert(ctx, u.ID, models.MetricTotalRepos, models.MetricValue{"count": 7}, t2))

	rows, err := repo.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.MetricValue{"count": float64(7)}, rows[0].Value)
	require.True(t, rows[0].LastRefreshedAt.Equal(t2))
}
