package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/model"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// CredentialStore is the slice of the document store the session manager needs.
// SwapRefreshTokenHash must be a single conditional write.
type CredentialStore interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByLogin(ctx context.Context, identifier string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	SwapRefreshTokenHash(ctx context.Context, userID string, expected, next *string) (bool, error)
	ClearRefreshTokenHash(ctx context.Context, userID string) error
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error)
}

// SecurityNotifier receives session security events outside the request path.
type SecurityNotifier interface {
	NotifyTokenReuse(ctx context.Context, userID string, at time.Time) error
}

type CookieConfig struct {
	AccessName    string
	RefreshName   string
	Path          string
	Domain        string
	Secure        bool
	SameSite      http.SameSite
	AccessMaxAge  int
	RefreshMaxAge int
}

// AuthService owns the refresh-token field of every user: at most one live
// refresh token per user, rotated on each use.
type AuthService struct {
	repo      CredentialStore
	tokens    *TokenIssuer
	hasher    *passwordHasher
	cookieCfg CookieConfig
	notifier  SecurityNotifier
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// NewAuthService validates cfg. local relaxes the default Secure cookie flag
// for plain-HTTP development.
func NewAuthService(repo CredentialStore, cfg config.AuthConfig, local bool, log *slog.Logger, m *metrics.Metrics) (*AuthService, error) {
	tokens, err := NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	hasher, err := newPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	cookieSecure, err := parseBool(cfg.CookieSecure, !local)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}

	if cookieSameSite == http.SameSiteNoneMode && !cookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	cookiePath := cfg.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	if log == nil {
		log = slog.Default()
	}

	return &AuthService{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		cookieCfg: CookieConfig{
			AccessName:    accessCookieName,
			RefreshName:   refreshCookieName,
			Path:          cookiePath,
			Domain:        cfg.CookieDomain,
			Secure:        cookieSecure,
			SameSite:      cookieSameSite,
			AccessMaxAge:  int(tokens.AccessTTL().Seconds()),
			RefreshMaxAge: int(tokens.RefreshTTL().Seconds()),
		},
		log:     log.With("component", "auth"),
		metrics: m,
	}, nil
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

func (s *AuthService) SetNotifier(n SecurityNotifier) {
	s.notifier = n
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.PublicUser, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: fullname is required", ErrInvalidArgument)
	}
	username, err := normalizeUsername(req.Username)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, db.ErrUniqueViolation) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

// Login verifies the password and installs a fresh refresh token, replacing
// whatever session the user had. Unknown identifiers and wrong passwords fail
// identically with ErrInvalidCredential after the same bcrypt work.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*model.LoginResult, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", ErrInvalidArgument)
	}

	user, err := s.repo.GetUserByLogin(ctx, identifier)
	if err != nil && !db.IsNoRows(err) {
		return nil, err
	}

	var storedHash string
	if user != nil {
		storedHash = user.PasswordHash
	}
	ok, err := s.hasher.Verify(storedHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.SessionEvent("login", "invalid_credential")
		return nil, ErrInvalidCredential
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	next := hashRefreshToken(pair.RefreshToken)
	swapped, err := s.repo.SwapRefreshTokenHash(ctx, user.ID, user.RefreshTokenHash, &next)
	if err != nil {
		return nil, err
	}
	if !swapped {
		s.log.WarnContext(ctx, "login lost refresh token race", "user_id", user.ID)
		s.metrics.SessionEvent("login", "conflict")
		return nil, ErrConflictRetry
	}

	s.metrics.SessionEvent("login", "ok")
	return &model.LoginResult{User: user.Public(), TokenPair: pair}, nil
}

// Refresh rotates the presented refresh token. The token must verify and be
// the one currently stored for its subject; the swap to the new token is
// conditional on the stored value still being the presented one.
func (s *AuthService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	subject, err := s.tokens.ParseRefresh(presented)
	if err != nil {
		s.metrics.SessionEvent("refresh", "invalid_token")
		return model.TokenPair{}, err
	}

	user, err := s.repo.GetUserByID(ctx, subject)
	if err != nil {
		if db.IsNoRows(err) {
			return model.TokenPair{}, fmt.Errorf("%w: user", ErrNotFound)
		}
		return model.TokenPair{}, err
	}

	presentedHash := hashRefreshToken(presented)
	if user.RefreshTokenHash == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshTokenHash), []byte(presentedHash)) != 1 {
		s.log.WarnContext(ctx, "refresh token reuse detected", "user_id", user.ID)
		s.metrics.SessionEvent("refresh", "reuse_detected")
		s.notifyReuse(ctx, user.ID)
		return model.TokenPair{}, ErrTokenReuseDetected
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	next := hashRefreshToken(pair.RefreshToken)
	swapped, err := s.repo.SwapRefreshTokenHash(ctx, user.ID, &presentedHash, &next)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !swapped {
		s.log.WarnContext(ctx, "refresh lost rotation race", "user_id", user.ID)
		s.metrics.SessionEvent("refresh", "conflict")
		return model.TokenPair{}, ErrConflictRetry
	}

	s.metrics.SessionEvent("refresh", "ok")
	return pair, nil
}

// Logout clears the stored refresh token. Access tokens already issued stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.ClearRefreshTokenHash(ctx, userID); err != nil {
		if db.IsNoRows(err) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return err
	}
	s.metrics.SessionEvent("logout", "ok")
	return nil
}

// ChangePassword replaces the password hash. Existing refresh tokens are
// left untouched.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredential
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if db.IsNoRows(err) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return err
	}
	return nil
}

// Authenticate resolves an access token to its user. Every failure, including
// a subject that no longer exists, is ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.tokens.ParseAccess(strings.TrimSpace(accessToken))
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, claims.ID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.PublicUser, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

func (s *AuthService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: fullname is required", ErrInvalidArgument)
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrUniqueViolation):
			return nil, ErrDuplicate
		case db.IsNoRows(err):
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		default:
			return nil, err
		}
	}
	public := user.Public()
	return &public, nil
}

func (s *AuthService) notifyReuse(ctx context.Context, userID string) {
	if s.notifier == nil {
		return
	}
	at := s.tokens.now()
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyTokenReuse(ctx, userID, at); err != nil {
			s.log.WarnContext(ctx, "token reuse notification failed", "user_id", userID, "error", err)
		}
	}()
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}

func parseSameSite(value string) (http.SameSite, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return http.SameSiteLaxMode, nil
	}
	switch value {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, ErrInvalidArgument
	}
}
