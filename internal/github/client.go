// Package github talks to the OAuth provider: the authorization-code
// exchange, the profile endpoint and the repository listing.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/models"
	"golang.org/x/oauth2"
)

var ErrNoAccessToken = errors.New("github: token response carried no access token")

// APIError is a non-2xx answer from the REST API.
type APIError struct {
	Endpoint   string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %s returned status %d", e.Endpoint, e.StatusCode)
}

type Client struct {
	oauth   *oauth2.Config
	apiURL  string
	timeout time.Duration
	http    *http.Client
}

// NewClient builds a provider client from cfg. Every outbound call is bounded
// by cfg.HTTPTimeout.
func NewClient(cfg config.GitHubConfig) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: cfg.Scopes,
		},
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// AuthCodeURL is the provider authorize URL. state may be empty.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for the provider access token.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithValue(ctx, oauth2.HTTPClient, c.http), c.timeout)
	defer cancel()
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	return tok.AccessToken, nil
}

// FetchProfile returns the authenticated user's profile.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (models.Profile, error) {
	var p models.Profile
	if err := c.getJSON(ctx, accessToken, "/user", &p); err != nil {
		return models.Profile{}, err
	}
	if p.ID == 0 || p.Login == "" {
		return models.Profile{}, errors.New("github: profile response missing id or login")
	}
	return p, nil
}

// ListRepositories returns one page (at most perPage entries) of the
// repositories visible to the token's owner.
func (c *Client) ListRepositories(ctx context.Context, accessToken string, perPage int) ([]models.Repository, error) {
	q := url.Values{"per_page": {strconv.Itoa(perPage)}}
	var repos []models.Repository
	if err := c.getJSON(ctx, accessToken, "/user/repos?"+q.Encode(), &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string, dst any) error {
	ctx, cancel := context.WithTimeout(context.WithValue(ctx, oauth2.HTTPClient, c.http), c.timeout)
	defer cancel()
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "insightboard")

	endpoint := path
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github: GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("github: decode %s: %w", endpoint, err)
	}
	return nil
}
