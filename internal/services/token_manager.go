package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	gmailapi "google.golang.org/api/gmail/v1"

	apperrors "github.com/vedhub/mailsync/internal/errors"
	"github.com/vedhub/mailsync/internal/models"
	"github.com/vedhub/mailsync/internal/repository"
)

// RefreshBuffer is how close to expiry an access token is replaced
const RefreshBuffer = 5 * time.Minute

// GmailScopes are requested on consent
var GmailScopes = []string{
	gmailapi.GmailModifyScope,
	gmailapi.GmailComposeScope,
	gmailapi.GmailSendScope,
}

// OAuthConfig holds the provider client registration
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewGoogleOAuthConfig builds the oauth2 config for Google's endpoints
func NewGoogleOAuthConfig(cfg OAuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       GmailScopes,
		Endpoint:     google.Endpoint,
	}
}

// TokenRefresher exchanges a refresh token for a new access token
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

type oauthRefresher struct {
	config *oauth2.Config
}

// NewOAuthRefresher refreshes through config's token endpoint
func NewOAuthRefresher(config *oauth2.Config) TokenRefresher {
	return &oauthRefresher{config: config}
}

func (r *oauthRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	// No access token forces the source to hit the token endpoint
	return r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
}

// TokenManager keeps each user's mailbox access token valid
type TokenManager interface {
	// GetValidAccessToken returns a token valid for at least RefreshBuffer, refreshing it if needed
	GetValidAccessToken(ctx context.Context, userID string) (string, error)

	// TokenSource adapts GetValidAccessToken for the provider SDK
	TokenSource(ctx context.Context, userID string) oauth2.TokenSource

	// AuthCodeURL returns the consent URL carrying state
	AuthCodeURL(state string) string

	// Exchange completes consent and stores the resulting credential
	Exchange(ctx context.Context, userID, code string) (*models.MailboxCredential, error)
}

type tokenManager struct {
	creds     repository.CredentialRepository
	config    *oauth2.Config
	refresher TokenRefresher
	now       func() time.Time
	group     singleflight.Group
	logger    *slog.Logger
}

// TokenManagerOption customizes a TokenManager
type TokenManagerOption func(*tokenManager)

// WithRefresher replaces the token endpoint client
func WithRefresher(r TokenRefresher) TokenManagerOption {
	return func(m *tokenManager) { m.refresher = r }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *tokenManager) { m.now = now }
}

// NewTokenManager creates a TokenManager over the credential store
func NewTokenManager(creds repository.CredentialRepository, config *oauth2.Config, logger *slog.Logger, opts ...TokenManagerOption) TokenManager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &tokenManager{
		creds:     creds,
		config:    config,
		refresher: NewOAuthRefresher(config),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *tokenManager) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	tok, err := m.validToken(ctx, userID)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (m *tokenManager) validToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	cred, err := m.loadCredential(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cred.AccessToken != "" && cred.Expiry.Sub(m.now()) >= RefreshBuffer {
		return credentialToken(cred), nil
	}

	// Concurrent callers for one user share a single refresh
	v, err, _ := m.group.Do(userID, func() (interface{}, error) {
		return m.refresh(ctx, cred)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

func (m *tokenManager) refresh(ctx context.Context, cred *models.MailboxCredential) (*oauth2.Token, error) {
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("user %s: %w", cred.UserID, apperrors.ErrCredentialExpired)
	}

	tok, err := m.refresher.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && isGrantRejection(retrieveErr) {
			m.logger.Warn("refresh token rejected",
				slog.String("user_id", cred.UserID),
				slog.String("error_code", retrieveErr.ErrorCode))
			// The provider's error is flattened so only our sentinel survives SDK adapters
			return nil, fmt.Errorf("user %s: %w: %v", cred.UserID, apperrors.ErrCredentialExpired, retrieveErr)
		}
		return nil, apperrors.NewUpstreamError("refresh token", retrieveStatus(err), err.Error(), err)
	}

	if err := m.creds.UpdateAccessToken(ctx, cred.UserID, tok.AccessToken, tok.Expiry); err != nil {
		return nil, apperrors.Persistence(err, "store refreshed token")
	}

	m.logger.Debug("access token refreshed",
		slog.String("user_id", cred.UserID),
		slog.Time("expiry", tok.Expiry))

	return &oauth2.Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		RefreshToken: cred.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

func (m *tokenManager) loadCredential(ctx context.Context, userID string) (*models.MailboxCredential, error) {
	cred, err := m.creds.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotAuthenticated)
		}
		return nil, apperrors.Persistence(err, "load credential")
	}
	return cred, nil
}

func (m *tokenManager) TokenSource(ctx context.Context, userID string) oauth2.TokenSource {
	return &managedTokenSource{ctx: ctx, userID: userID, manager: m}
}

func (m *tokenManager) AuthCodeURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (m *tokenManager) Exchange(ctx context.Context, userID, code string) (*models.MailboxCredential, error) {
	if userID == "" || code == "" {
		return nil, apperrors.ErrInvalidInput
	}

	tok, err := m.config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && isGrantRejection(retrieveErr) {
			return nil, apperrors.NewAppError(apperrors.ErrInvalidInput, "authorization code rejected", apperrors.CodeInvalidInput)
		}
		return nil, apperrors.NewUpstreamError("exchange code", retrieveStatus(err), err.Error(), err)
	}

	cred := &models.MailboxCredential{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
	}
	if err := m.creds.Save(ctx, cred); err != nil {
		return nil, apperrors.Persistence(err, "save credential")
	}

	m.logger.Info("mailbox connected",
		slog.String("user_id", userID),
		slog.Bool("refresh_token_issued", tok.RefreshToken != ""))
	return cred, nil
}

func credentialToken(cred *models.MailboxCredential) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  cred.AccessToken,
		TokenType:    cred.TokenType,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.Expiry,
	}
}

// managedTokenSource asks the manager on every call; the manager decides when to refresh
type managedTokenSource struct {
	ctx     context.Context
	userID  string
	manager *tokenManager
}

func (s *managedTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.manager.validToken(s.ctx, s.userID)
	if err != nil {
		return nil, err
	}
	// The SDK must not cache past our refresh window
	out := *tok
	out.RefreshToken = ""
	out.Expiry = tok.Expiry.Add(-RefreshBuffer)
	return &out, nil
}

// isGrantRejection reports whether the token endpoint refused the grant itself.
// Throttling and server errors also arrive as RetrieveError and are not rejections.
func isGrantRejection(err *oauth2.RetrieveError) bool {
	switch err.ErrorCode {
	case "invalid_grant", "unauthorized_client", "invalid_client":
		return true
	}
	if err.Response == nil {
		return false
	}
	switch err.Response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return true
	}
	return false
}

func retrieveStatus(err error) int {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return retrieveErr.Response.StatusCode
	}
	return 0
}
