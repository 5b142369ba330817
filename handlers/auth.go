package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/insightboard/insightboard/internal/config"
	"github.com/insightboard/insightboard/internal/login"
	"github.com/insightboard/insightboard/internal/oauthstate"
	"github.com/insightboard/insightboard/pkg/logger"
)

// LoginFlow completes an OAuth callback.
type LoginFlow interface {
	Complete(ctx context.Context, code string) (login.Result, error)
}

// AuthorizeURLer builds the provider authorize URL.
type AuthorizeURLer interface {
	AuthCodeURL(state string) string
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg       *config.Config
	flow      LoginFlow
	authorize AuthorizeURLer
	states    oauthstate.Store
}

// NewAuthHandler wires the login routes. states may be nil, in which case
// the callback does not check the state parameter.
func NewAuthHandler(cfg *config.Config, flow LoginFlow, authorize AuthorizeURLer, states oauthstate.Store) *AuthHandler {
	return &AuthHandler{cfg: cfg, flow: flow, authorize: authorize, states: states}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.GET("/github/login", h.Login)
	a.GET("/github/callback", h.Callback)
	a.POST("/logout", h.Logout)
}

// Login redirects the browser to the provider authorize page.
func (h *AuthHandler) Login(c *gin.Context) {
	state := ""
	if h.states != nil {
		s, err := h.states.Issue(c.Request.Context())
		if err != nil {
			logger.Errorf("failed to issue oauth state: %v", err)
			c.Redirect(http.StatusFound, h.cfg.FailureURL())
			return
		}
		state = s
	}
	c.Redirect(http.StatusFound, h.authorize.AuthCodeURL(state))
}

// Callback finishes the OAuth dance, sets the session cookie and redirects
// to the landing page. Every failure after the code check ends on the
// failure page with no detail.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Error: No code provided.")
		return
	}

	if h.states != nil {
		ok, err := h.states.Consume(c.Request.Context(), c.Query("state"))
		if err != nil || !ok {
			logger.Warnf("oauth callback rejected: unknown or reused state (err=%v)", err)
			c.Redirect(http.StatusFound, h.cfg.FailureURL())
			return
		}
	}

	res, err := h.flow.Complete(c.Request.Context(), code)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Errorf("oauth callback failed: %v", err)
		}
		c.Redirect(http.StatusFound, h.cfg.FailureURL())
		return
	}

	h.setSessionCookie(c, res.SessionToken, int(h.cfg.Session.TTL.Seconds()))
	logger.Infof("session cookie set for user %d", res.User.ID)
	c.Redirect(http.StatusFound, h.cfg.LandingURL())
}

// Logout drops the session cookie. Sessions are stateless, so a copied
// token stays valid until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Secure follows cfg.Session.CookieSecure, which is always on in production.
func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Session.CookieName, value, maxAge, "/", "", h.cfg.Session.CookieSecure, true)
}
