package accounts_test

import (
	"context"
	"os"
	"testing"

	"github.com/insightboard/insightboard/internal/accounts"
	"github.com/insightboard/insightboard/internal/database"
	"github.com/insightboard/insightboard/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const testPostgresDSNEnv = "TEST_POSTGRES_DSN"

func newPostgresRepo(t *testing.T) (*accounts.PostgresRepository, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv(testPostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping postgres repository tests", testPostgresDSNEnv)
	}
	require.NoError(t, database.RunMigrations(dsn))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), "TRUNCATE users RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return accounts.NewPostgresRepository(pool), pool
}

func TestPostgresRepository_UpsertTwiceKeepsOneRow(t *testing.T) {
	repo, pool := newPostgresRepo(t)
	ctx := context.Background()

	u1, err := repo.UpsertWithCredential(ctx, models.Profile{ID: 42, Login: "alice", AvatarURL: "http://a"}, "c1")
	require.NoError(t, err)
	u2, err := repo.UpsertWithCredential(ctx, models.Profile{ID: 42, Login: "alice", AvatarURL: "http://a2"}, "c2")
	require.NoError(t, err)
	require.Equal(t, u1.ID, u2.ID)
	require.Equal(t, "http://a2", u2.AvatarURL)

	var users, tokens int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&users))
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM user_tokens").Scan(&tokens))
	require.Equal(t, 1, users)
	require.Equal(t, 1, tokens)

	var githubID int64
	require.NoError(t, pool.QueryRow(ctx, "SELECT github_id FROM users WHERE id = $1", u1.ID).Scan(&githubID))
	require.Equal(t, int64(42), githubID)

	recs, err := repo.ListCredentials(ctx)
	require.NoError(t, err)
	require.Equal(t, []models.CredentialRecord{{UserID: u1.ID, Username: "alice", EncryptedSecret: "c2"}}, recs)
}
