package tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/models"
)

// DefaultTTL is the lifetime of a session token.
const DefaultTTL = 7 * 24 * time.Hour

// ErrInvalidToken covers bad signatures, expiry and malformed input alike so
// callers cannot tell them apart.
var ErrInvalidToken = errors.New("invalid session token")

// SessionClaims is the signed payload carried by the session cookie.
type SessionClaims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session tokens.
type Manager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewManager creates a manager signing with key. A zero ttl means DefaultTTL.
func NewManager(key string, ttl time.Duration) (*Manager, error) {
	if key == "" {
		return nil, errors.New("tokens: empty signing key")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{key: []byte(key), ttl: ttl, now: time.Now}, nil
}

// NewManagerFromConfig uses the session signing key and lifetime from cfg.
func NewManagerFromConfig(cfg *config.Config) (*Manager, error) {
	return NewManager(cfg.Session.SigningKey, cfg.Session.TTL)
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a signed session token for the user.
func (m *Manager) Issue(userID int64, username string) (string, error) {
	now := m.now()
	claims := SessionClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := jt.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return s, nil
}

// Verify checks signature and expiry in one step and returns the embedded identity.
func (m *Manager) Verify(raw string) (models.Identity, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == 0 {
		return models.Identity{}, ErrInvalidToken
	}
	return models.Identity{UserID: claims.UserID, Username: claims.Username}, nil
}
