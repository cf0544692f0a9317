package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_auth_service.go -package=mocks -mock_names=AuthService=MockAuthService lessonarchiver/internal/service AuthService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/identity"
	"lessonarchiver/internal/storage"
)

// EnvLocal selects the local development login callback.
const EnvLocal = "local"

// AuthService authenticates callers against the identity service.
type AuthService interface {
	// LoginURL returns the URL that starts a login through provider.
	LoginURL(ctx context.Context, provider, env string) (string, error)
	// Authenticate resolves a bearer token to a principal, creating the user on first sight.
	Authenticate(ctx context.Context, token string) (Principal, error)
	// Renew exchanges a token for a fresh one.
	Renew(ctx context.Context, token string) (string, error)
}

// Callbacks are the login redirect targets handed to the identity service.
type Callbacks struct {
	App   string
	Local string
}

// authService implements AuthService.
type authService struct {
	gateway   identity.Gateway
	store     *storage.Store
	callbacks Callbacks
	providers map[string]bool
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(gateway identity.Gateway, store *storage.Store, callbacks Callbacks) AuthService {
	return &authService{
		gateway:   gateway,
		store:     store,
		callbacks: callbacks,
		providers: map[string]bool{"google": true},
		now:       time.Now,
	}
}

// LoginURL asks the identity service for a provider login URL.
func (s *authService) LoginURL(ctx context.Context, provider, env string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if !s.providers[provider] {
		return "", &ValidationError{Field: "provider", Message: fmt.Sprintf("unsupported provider %q", provider)}
	}

	callback := s.callbacks.App
	if env == EnvLocal {
		callback = s.callbacks.Local
	}

	url, err := s.gateway.Authorize(ctx, provider, callback)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get authorization url", "provider", provider, "error", err)
		return "", externalError(err, "failed to get authorization url")
	}
	return url, nil
}

// Authenticate checks the token locally for expiry, then with the identity service.
func (s *authService) Authenticate(ctx context.Context, token string) (Principal, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if token == "" {
		return Principal{}, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	if exp, err := identity.TokenExpiry(token); err == nil && !s.now().Before(exp) {
		return Principal{}, fmt.Errorf("%w: token expired", ErrUnauthorized)
	}

	claims, err := s.gateway.Inspect(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrRejected) {
			logger.WarnContext(ctx, "token inspection failed", "error", err)
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	notaryID := claims.UserID
	if notaryID == "" {
		notaryID = claims.Sub
	}
	if notaryID == "" {
		return Principal{}, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}

	user, err := s.store.Users().FindOrCreate(ctx, notaryID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to resolve user", "notary_id", notaryID, "error", err)
		return Principal{}, WrapError(err, "failed to resolve user")
	}

	return Principal{UserID: user.ID, Claims: claims}, nil
}

// Renew asks the identity service for a new token.
func (s *authService) Renew(ctx context.Context, token string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	renewed, err := s.gateway.Renew(ctx, token)
	if err != nil {
		var refused *identity.RenewalError
		if errors.As(err, &refused) {
			return "", fmt.Errorf("%w: %s", ErrUnauthorized, refused.Reason)
		}
		logger.WarnContext(ctx, "token renewal failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return renewed, nil
}
