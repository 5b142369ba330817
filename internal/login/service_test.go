package login

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/insightboard/insightboard/internal/accounts"
	"github.com/insightboard/insightboard/internal/models"
	"github.com/insightboard/insightboard/internal/secrets"
	"github.com/insightboard/insightboard/internal/tokens"
	"github.com/insightboard/insightboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	tokens      map[string]string
	profile     models.Profile
	exchangeErr error
	profileErr  error
	seenToken   string
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	tok, ok := f.tokens[code]
	if !ok {
		return "", errors.New("bad_verification_code")
	}
	return tok, nil
}

func (f *fakeProvider) FetchProfile(_ context.Context, accessToken string) (models.Profile, error) {
	f.seenToken = accessToken
	if f.profileErr != nil {
		return models.Profile{}, f.profileErr
	}
	return f.profile, nil
}

type fixture struct {
	svc      *Service
	provider *fakeProvider
	repo     *accounts.MemoryRepository
	cipher   *secrets.Cipher
	tokens   *tokens.Manager
}

// storedSecret returns the ciphertext persisted for userID.
func (f fixture) storedSecret(t *testing.T, userID int64) string {
	t.Helper()
	recs, err := f.repo.ListCredentials(context.Background())
	require.NoError(t, err)
	for _, rec := range recs {
		if rec.UserID == userID {
			return rec.EncryptedSecret
		}
	}
	t.Fatalf("no credential stored for user %d", userID)
	return ""
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	c, err := secrets.NewCipher("test-passphrase")
	require.NoError(t, err)
	tm, err := tokens.NewManager("signing-key", time.Hour)
	require.NoError(t, err)
	p := &fakeProvider{
		tokens:  map[string]string{"abc123": "gh_token_x", "def456": "gh_token_y"},
		profile: models.Profile{ID: 42, Login: "alice", AvatarURL: "http://a"},
	}
	repo := accounts.NewMemoryRepository()
	return fixture{svc: NewService(p, c, repo, tm), provider: p, repo: repo, cipher: c, tokens: tm}
}

func TestComplete_PersistsEncryptedCredentialAndIssuesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Complete(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, "gh_token_x", f.provider.seenToken)
	require.Equal(t, "alice", res.User.Username)
	require.Equal(t, int64(42), res.User.ExternalID)

	stored := f.storedSecret(t, res.User.ID)
	require.NotContains(t, stored, "gh_token_x")
	plain, err := f.cipher.Decrypt(stored)
	require.NoError(t, err)
	require.Equal(t, "gh_token_x", plain)

	id, err := f.tokens.Verify(res.SessionToken)
	require.NoError(t, err)
	require.Equal(t, res.Identity(), id)
	require.Equal(t, models.Identity{UserID: res.User.ID, Username: "alice"}, id)
}

func TestComplete_TwoLoginsSameIdentityUpdateInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Complete(ctx, "abc123")
	require.NoError(t, err)
	second, err := f.svc.Complete(ctx, "def456")
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)

	users, creds := f.repo.Counts()
	require.Equal(t, 1, users)
	require.Equal(t, 1, creds)

	plain, err := f.cipher.Decrypt(f.storedSecret(t, first.User.ID))
	require.NoError(t, err)
	require.Equal(t, "gh_token_y", plain)
}

func TestComplete_FailuresPersistNothing(t *testing.T) {
	cases := map[string]func(f fixture){
		"exchange": func(f fixture) { f.provider.exchangeErr = errors.New("network down") },
		"profile":  func(f fixture) { f.provider.profileErr = errors.New("401") },
		"persist":  func(f fixture) { f.repo.FailCredentialWrite = errors.New("tx aborted") },
	}
	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			breakIt(f)
			_, err := f.svc.Complete(context.Background(), "abc123")
			require.Error(t, err)
			users, creds := f.repo.Counts()
			require.Zero(t, users)
			require.Zero(t, creds)
		})
	}
}

func TestComplete_MissingCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Complete(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingCode)
}

func TestComplete_CountsOutcomes(t *testing.T) {
	f := newFixture(t)
	okBefore := testutil.ToFloat64(metrics.OAuthLogins.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(metrics.OAuthLogins.WithLabelValues("exchange_failed"))

	_, err := f.svc.Complete(context.Background(), "abc123")
	require.NoError(t, err)
	_, err = f.svc.Complete(context.Background(), "unknown-code")
	require.Error(t, err)

	require.Equal(t, okBefore+1, testutil.ToFloat64(metrics.OAuthLogins.WithLabelValues("success")))
	require.Equal(t, failBefore+1, testutil.ToFloat64(metrics.OAuthLogins.WithLabelValues("exchange_failed")))
}
