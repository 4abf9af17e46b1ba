package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
)

// ErrInvalidState is returned when an OAuth callback state fails verification.
var ErrInvalidState = errors.New("invalid or expired oauth state")

const (
	stateAudience = "oauth-state"
	stateTTL      = 10 * time.Minute
)

// CredentialProvider is the credential surface the connection flow needs.
type CredentialProvider interface {
	AuthCodeURL(service model.Service, state string) string
	Exchange(ctx context.Context, userID string, service model.Service, code string) (*model.Credential, error)
	Status(ctx context.Context, userID string) ([]model.ConnectionStatus, error)
	Disconnect(ctx context.Context, userID string, service model.Service) error
	DeleteAccount(ctx context.Context, userID string) (int64, error)
}

// StateClaims binds an OAuth round trip to one user and service.
type StateClaims struct {
	jwt.RegisteredClaims
	Service model.Service `json:"svc"`
}

// ConnectionService drives the Google consent flow and manages stored grants.
type ConnectionService struct {
	provider CredentialProvider
	secret   []byte
	now      func() time.Time
	logger   *logger.Logger
}

// NewConnectionService creates a new connection service. secret signs the
// OAuth state parameter.
func NewConnectionService(provider CredentialProvider, secret string, log *logger.Logger) *ConnectionService {
	return &ConnectionService{
		provider: provider,
		secret:   []byte(secret),
		now:      time.Now,
		logger:   log,
	}
}

// Begin returns the consent URL for connecting a service.
func (s *ConnectionService) Begin(userID string, service model.Service) (*model.ConnectResponse, error) {
	state, err := s.signState(userID, service)
	if err != nil {
		return nil, err
	}
	return &model.ConnectResponse{AuthURL: s.provider.AuthCodeURL(service, state)}, nil
}

// Complete verifies the callback state and stores the exchanged grant.
func (s *ConnectionService) Complete(ctx context.Context, state, code string) (*model.Credential, error) {
	claims, err := s.verifyState(state)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrInvalidState)
	}
	return s.provider.Exchange(ctx, claims.Subject, claims.Service, code)
}

// List returns the connection status of every service.
func (s *ConnectionService) List(ctx context.Context, userID string) ([]model.ConnectionStatus, error) {
	return s.provider.Status(ctx, userID)
}

// Disconnect removes one stored grant.
func (s *ConnectionService) Disconnect(ctx context.Context, userID string, service model.Service) error {
	return s.provider.Disconnect(ctx, userID, service)
}

// DeleteAccount removes every stored grant of the user.
func (s *ConnectionService) DeleteAccount(ctx context.Context, userID string) (int64, error) {
	return s.provider.DeleteAccount(ctx, userID)
}

func (s *ConnectionService) signState(userID string, service model.Service) (string, error) {
	now := s.now()
	claims := StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
		Service: service,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

func (s *ConnectionService) verifyState(state string) (*StateClaims, error) {
	claims := &StateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidState
	}
	if _, ok := model.ParseService(string(claims.Service)); !ok || claims.Subject == "" {
		return nil, ErrInvalidState
	}
	return claims, nil
}
