package credentials

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
	"github.com/capitalize-ai/workspace-assistant/pkg/metrics"
)

// Scopes requested per service at consent time.
var Scopes = map[model.Service][]string{
	model.ServiceGmail: {
		gmail.GmailReadonlyScope,
		gmail.GmailSendScope,
	},
	model.ServiceCalendar: {
		calendar.CalendarEventsScope,
		calendar.CalendarReadonlyScope,
	},
}

// AccountResolver looks up the account email a fresh token belongs to.
type AccountResolver interface {
	AccountEmail(ctx context.Context, token *model.AccessToken) (string, error)
}

// Provider hands out live access tokens, refreshing and persisting them as needed.
type Provider struct {
	store     *Store
	oauth     oauth2.Config
	resolvers map[model.Service]AccountResolver
	logger    *logger.Logger
}

// NewProvider creates a provider. base carries the client id, secret,
// redirect URL and endpoint; scopes are filled in per service.
func NewProvider(store *Store, base oauth2.Config, log *logger.Logger) *Provider {
	return &Provider{
		store:     store,
		oauth:     base,
		resolvers: make(map[model.Service]AccountResolver),
		logger:    log,
	}
}

// RegisterResolver sets the account-email lookup used after Exchange.
func (p *Provider) RegisterResolver(service model.Service, r AccountResolver) {
	p.resolvers[service] = r
}

func (p *Provider) configFor(service model.Service) *oauth2.Config {
	cfg := p.oauth
	cfg.Scopes = append([]string(nil), Scopes[service]...)
	return &cfg
}

// GetValidToken returns a usable bearer token for (user, service).
func (p *Provider) GetValidToken(ctx context.Context, userID string, service model.Service) (*model.AccessToken, error) {
	cred, err := p.store.Get(ctx, userID, service)
	if err != nil {
		return nil, err
	}

	current := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       cred.Expiry,
	}
	if current.Valid() {
		return &model.AccessToken{Token: cred.AccessToken, AccountEmail: cred.AccountEmail}, nil
	}
	if cred.RefreshToken == "" {
		metrics.RecordTokenRefresh(string(service), "no_refresh_token")
		return nil, fmt.Errorf("%w: %s token expired and no refresh token is stored", ErrRefreshFailed, service)
	}

	fresh, err := p.configFor(service).TokenSource(ctx, current).Token()
	if err != nil {
		metrics.RecordTokenRefresh(string(service), "error")
		p.logger.Warn("token refresh failed",
			zap.String("user_id", userID),
			zap.String("service", string(service)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	metrics.RecordTokenRefresh(string(service), "ok")

	if fresh.AccessToken != cred.AccessToken {
		cred.AccessToken = fresh.AccessToken
		cred.Expiry = fresh.Expiry
		if fresh.RefreshToken != "" {
			cred.RefreshToken = fresh.RefreshToken
		}
		if err := p.store.Upsert(ctx, cred); err != nil {
			// The fresh token is still usable for this turn.
			p.logger.Warn("could not persist refreshed token",
				zap.String("user_id", userID),
				zap.String("service", string(service)),
				zap.Error(err),
			)
		}
	}

	return &model.AccessToken{Token: fresh.AccessToken, AccountEmail: cred.AccountEmail}, nil
}

// AuthCodeURL returns the Google consent URL for a service.
func (p *Provider) AuthCodeURL(service model.Service, state string) string {
	return p.configFor(service).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades an authorization code for a grant and stores it.
func (p *Provider) Exchange(ctx context.Context, userID string, service model.Service, code string) (*model.Credential, error) {
	cfg := p.configFor(service)
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	cred := &model.Credential{
		UserID:       userID,
		Service:      service,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       cfg.Scopes,
	}

	// Re-consent may omit the refresh token; keep the one already on file.
	if cred.RefreshToken == "" {
		if prev, err := p.store.Get(ctx, userID, service); err == nil {
			cred.RefreshToken = prev.RefreshToken
			cred.CreatedAt = prev.CreatedAt
		}
	}

	if r, ok := p.resolvers[service]; ok {
		email, err := r.AccountEmail(ctx, &model.AccessToken{Token: tok.AccessToken})
		if err != nil {
			p.logger.Warn("account email lookup failed",
				zap.String("user_id", userID),
				zap.String("service", string(service)),
				zap.Error(err),
			)
		} else {
			cred.AccountEmail = email
		}
	}

	if err := p.store.Upsert(ctx, cred); err != nil {
		return nil, err
	}
	p.logger.Info("service connected",
		zap.String("user_id", userID),
		zap.String("service", string(service)),
		zap.String("account_email", cred.AccountEmail),
	)
	return cred, nil
}

// Status reports the connection state of every service for a user.
func (p *Provider) Status(ctx context.Context, userID string) ([]model.ConnectionStatus, error) {
	creds, err := p.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	byService := make(map[model.Service]*model.Credential, len(creds))
	for _, c := range creds {
		byService[c.Service] = c
	}

	statuses := make([]model.ConnectionStatus, 0, len(model.Services))
	for _, svc := range model.Services {
		st := model.ConnectionStatus{Service: svc}
		if c, ok := byService[svc]; ok {
			st.Connected = true
			st.AccountEmail = c.AccountEmail
			st.Scopes = c.Scopes
			if !c.Expiry.IsZero() {
				exp := c.Expiry
				st.ExpiresAt = &exp
			}
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Disconnect forgets one service grant.
func (p *Provider) Disconnect(ctx context.Context, userID string, service model.Service) error {
	return p.store.Delete(ctx, userID, service)
}

// DeleteAccount forgets every grant the user holds.
func (p *Provider) DeleteAccount(ctx context.Context, userID string) (int64, error) {
	n, err := p.store.DeleteUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	p.logger.Info("account credentials deleted", zap.String("user_id", userID), zap.Int64("count", n))
	return n, nil
}

// Ping reports whether the backing store is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.store.Ping(ctx)
}
