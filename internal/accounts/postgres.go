package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/insightboard/insightboard/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository on the users and user_tokens tables.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = "id, github_id, username, avatar_url, created_at, updated_at"

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Username, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *PostgresRepository) UpsertWithCredential(ctx context.Context, p models.Profile, encryptedSecret string) (models.User, error) {
	var u models.User
	// BeginFunc commits when fn returns nil and rolls back otherwise; the
	// connection goes back to the pool on every path.
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		u, err = scanUser(tx.QueryRow(ctx, `
			INSERT INTO users (github_id, username, avatar_url)
			VALUES ($1, $2, $3)
			ON CONFLICT (github_id) DO UPDATE
			SET username = EXCLUDED.username, avatar_url = EXCLUDED.avatar_url, updated_at = now()
			RETURNING `+userColumns,
			p.ID, p.Login, p.AvatarURL))
		if errors.Is(err, pgx.ErrNoRows) {
			u, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE github_id = $1`, p.ID))
		}
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO user_tokens (user_id, access_token_encrypted, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (user_id) DO UPDATE
			SET access_token_encrypted = EXCLUDED.access_token_encrypted, updated_at = now()`,
			u.ID, encryptedSecret); err != nil {
			return fmt.Errorf("upsert credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (r *PostgresRepository) ListCredentials(ctx context.Context) ([]models.CredentialRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.username, t.access_token_encrypted
		FROM users u
		JOIN user_tokens t ON t.user_id = u.id
		ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	recs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.CredentialRecord])
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return recs, nil
}
