package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/Pradumn88/lms-college-site-sub000/config"
	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"
	"github.com/Pradumn88/lms-college-site-sub000/internal/domain/users"
	"github.com/Pradumn88/lms-college-site-sub000/internal/repo"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer = "https://accounts.google.com"
	stateCookie  = "oauth_state"
)

type GoogleUserStore interface {
	FindOrCreateGoogle(ctx context.Context, id repo.GoogleIdentity) (users.User, error)
}

// Google signs users in with Google OpenID Connect and answers with the
// same JWT as password login.
type Google struct {
	oauth            *oauth2.Config
	clientID         string
	frontendRedirect string
	secureCookie     bool
	users            GoogleUserStore
	jwtSecret        string
	log              logrus.FieldLogger

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewGoogle(cfg config.GoogleConfig, secureCookie bool, store GoogleUserStore, jwtSecret string, log logrus.FieldLogger) *Google {
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		clientID:         cfg.ClientID,
		frontendRedirect: cfg.FrontendRedirect,
		secureCookie:     secureCookie,
		users:            store,
		jwtSecret:        jwtSecret,
		log:              log,
	}
}

// idTokenVerifier discovers the provider on first use and keeps it.
func (g *Google) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifier != nil {
		return g.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.clientID})
	return g.verifier, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /auth/google
func (g *Google) Start(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "internal_error", "failed to generate state")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 300, "/", "", g.secureCookie, true)
	c.Redirect(http.StatusFound, g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GET /auth/google/callback
func (g *Google) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		respond.BadRequest(c, "missing code/state")
		return
	}
	cookieState, err := c.Cookie(stateCookie)
	if err != nil || cookieState != state {
		respond.BadRequest(c, "invalid oauth state")
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", g.secureCookie, true)

	ctx := c.Request.Context()
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		g.log.WithError(err).Warn("google code exchange failed")
		respond.Unauthorized(c, "failed to exchange code")
		return
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		respond.Unauthorized(c, "missing id_token")
		return
	}

	claims, err := g.verifyIDToken(ctx, rawIDToken)
	if err != nil {
		g.log.WithError(err).Warn("google id token rejected")
		respond.Unauthorized(c, err.Error())
		return
	}

	user, err := g.users.FindOrCreateGoogle(ctx, repo.GoogleIdentity{
		Sub:     claims.Sub,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}

	token, err := issueAppJWT(g.jwtSecret, user)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, "internal_error", "could not create token")
		return
	}
	if g.frontendRedirect == "" {
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
		return
	}
	c.Redirect(http.StatusFound, g.frontendRedirect+"?token="+url.QueryEscape(token))
}

func (g *Google) verifyIDToken(ctx context.Context, raw string) (*googleIDClaims, error) {
	verifier, err := g.idTokenVerifier(ctx)
	if err != nil {
		return nil, errors.New("failed to init google oidc provider")
	}
	idToken, err := verifier.Verify(ctx, raw)
	if err != nil {
		return nil, errors.New("invalid id_token")
	}
	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.New("failed to decode token claims")
	}
	if claims.Sub == "" || claims.Email == "" {
		return nil, errors.New("token missing required claims")
	}
	if !claims.EmailVerified {
		return nil, errors.New("google email is not verified")
	}
	return &claims, nil
}
