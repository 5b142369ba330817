// Package login runs the OAuth callback: code exchange, profile fetch,
// credential encryption, transactional persistence and session issuance.
package login

import (
	"context"
	"errors"
	"fmt"

	"github.com/insightboard/insightboard/internal/accounts"
	"github.com/insightboard/insightboard/internal/models"
	"github.com/insightboard/insightboard/pkg/logger"
	"github.com/insightboard/insightboard/pkg/metrics"
)

var ErrMissingCode = errors.New("login: authorization code missing")

// Provider is the part of the OAuth provider the flow depends on.
type Provider interface {
	Exchange(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (models.Profile, error)
}

type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

type SessionIssuer interface {
	Issue(userID int64, username string) (string, error)
}

// Result is a completed login.
type Result struct {
	User         models.User
	SessionToken string
}

// Identity is the claim set carried by SessionToken.
func (r Result) Identity() models.Identity {
	return models.Identity{UserID: r.User.ID, Username: r.User.Username}
}

type Service struct {
	provider Provider
	cipher   Encrypter
	accounts accounts.Repository
	sessions SessionIssuer
}

func NewService(p Provider, c Encrypter, repo accounts.Repository, s SessionIssuer) *Service {
	return &Service{provider: p, cipher: c, accounts: repo, sessions: s}
}

// Complete runs the flow for one authorization code. Any failure leaves no
// credential behind; the returned error is for logs only.
func (s *Service) Complete(ctx context.Context, code string) (Result, error) {
	if code == "" {
		return Result{}, ErrMissingCode
	}

	accessToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return s.fail("exchange_failed", fmt.Errorf("token exchange: %w", err))
	}
	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		return s.fail("profile_failed", fmt.Errorf("profile fetch: %w", err))
	}
	sealed, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return s.fail("encrypt_failed", fmt.Errorf("encrypt credential: %w", err))
	}
	user, err := s.accounts.UpsertWithCredential(ctx, profile, sealed)
	if err != nil {
		return s.fail("persist_failed", fmt.Errorf("persist user %d: %w", profile.ID, err))
	}
	token, err := s.sessions.Issue(user.ID, user.Username)
	if err != nil {
		return s.fail("session_failed", fmt.Errorf("issue session: %w", err))
	}

	metrics.OAuthLogins.WithLabelValues("success").Inc()
	logger.Infof("login completed for user %d (%s)", user.ID, user.Username)
	return Result{User: user, SessionToken: token}, nil
}

func (s *Service) fail(outcome string, err error) (Result, error) {
	metrics.OAuthLogins.WithLabelValues(outcome).Inc()
	return Result{}, err
}
