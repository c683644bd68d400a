// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gurkanbulca/taskpulse/internal/middleware"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/pkg/auth"
	"github.com/gurkanbulca/taskpulse/pkg/email"
)

const invalidCredentials = "Incorrect email or password"

type AuthService struct {
	store           *repository.Store
	tokenManager    *auth.TokenManager
	passwordManager *auth.PasswordManager
	securityLogger  *SecurityLogger
	emailService    email.EmailService
	clock           Clock
}

// NewAuthService creates the authentication gate. emailService may be nil,
// in which case password change notifications are skipped.
func NewAuthService(
	store *repository.Store,
	tokenManager *auth.TokenManager,
	passwordManager *auth.PasswordManager,
	securityLogger *SecurityLogger,
	emailService email.EmailService,
	clock Clock,
) *AuthService {
	return &AuthService{
		store:           store,
		tokenManager:    tokenManager,
		passwordManager: passwordManager,
		securityLogger:  securityLogger,
		emailService:    emailService,
		clock:           clock,
	}
}

// Authenticate checks credentials. Unknown email, wrong password and
// inactive account all fail with the same Unauthorized error, and a bcrypt
// comparison runs on every path.
func (s *AuthService) Authenticate(ctx context.Context, emailAddr, password string) (*models.User, error) {
	emailAddr = normalizeEmail(emailAddr)

	user, err := s.store.Users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, storage("get user", err)
		}
		s.passwordManager.VerifyDummy(password)
		s.securityLogger.LogLoginFailed(ctx, emailAddr)
		return nil, unauthorized(invalidCredentials)
	}

	if !s.passwordManager.VerifyPassword(password, user.PasswordHash) || !user.IsActive {
		s.securityLogger.LogLoginFailed(ctx, emailAddr)
		return nil, unauthorized(invalidCredentials)
	}
	return user, nil
}

// LoginResult is the issued token plus the user it belongs to.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *models.User
}

// Login authenticates and issues a bearer token whose subject is the email.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, emailAddr, password)
	if err != nil {
		return nil, err
	}

	if s.passwordManager.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	token, expiresAt, err := s.tokenManager.Issue(user.Email, string(user.Role), 0)
	if err != nil {
		return nil, storage("issue token", err)
	}

	s.securityLogger.LogLoginSuccess(ctx, user.ID)
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

// rehash upgrades a hash produced with an older cost. Failures only cost us
// the upgrade.
func (s *AuthService) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := s.passwordManager.HashPassword(password)
	if err != nil {
		return
	}
	if err := s.store.Users.UpdatePassword(ctx, user.ID, hash, s.clock.Now()); err != nil {
		log.Printf("[ERROR] rehash password for user %s: %v", user.ID, err)
		return
	}
	user.PasswordHash = hash
}

// ResolveToken turns a bearer token into an Actor. Tokens for unknown or
// inactive users are rejected.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*Actor, error) {
	claims, err := s.tokenManager.Verify(token)
	if err != nil {
		return nil, unauthorized("Could not validate credentials")
	}

	user, err := s.store.Users.GetByEmail(ctx, normalizeEmail(claims.Subject))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized("Could not validate credentials")
		}
		return nil, storage("get user", err)
	}
	if !user.IsActive {
		s.securityLogger.LogSecurityAlert(ctx, user.ID, "Token presented for inactive account")
		return nil, unauthorized("Could not validate credentials")
	}
	return newActor(user), nil
}

// AuthenticateRequest satisfies middleware.Authenticator. The returned
// context carries the Actor and the identity fields used by request logging.
func (s *AuthService) AuthenticateRequest(ctx context.Context, token string) (context.Context, error) {
	actor, err := s.ResolveToken(ctx, token)
	if err != nil {
		return ctx, err
	}
	ctx = middleware.WithIdentity(ctx, actor.ID().String(), actor.Email(), string(actor.Role()))
	return withActor(ctx, actor), nil
}

// Me reloads the actor's user record.
func (s *AuthService) Me(ctx context.Context, actor *Actor) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, actor.ID())
	if err != nil {
		return nil, translate(err, "user", "get user")
	}
	return user, nil
}

// ChangePassword replaces the actor's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *Actor, currentPassword, newPassword string) error {
	user, err := s.store.Users.GetByID(ctx, actor.ID())
	if err != nil {
		return translate(err, "user", "get user")
	}

	if !s.passwordManager.VerifyPassword(currentPassword, user.PasswordHash) {
		return validation("current password is incorrect")
	}
	if currentPassword == newPassword {
		return validation("new password must be different from the current password")
	}

	hash, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return validation("%v", err)
		}
		return storage("hash password", err)
	}

	if err := s.store.Users.UpdatePassword(ctx, user.ID, hash, s.clock.Now()); err != nil {
		return translate(err, "user", "update password")
	}

	s.securityLogger.LogPasswordChanged(ctx, user.ID)
	if s.emailService != nil {
		to := email.Recipient{Email: user.Email, FirstName: user.FirstName}
		if err := s.emailService.SendPasswordChangedNotification(ctx, to); err != nil {
			log.Printf("[ERROR] password change notification for user %s: %v", user.ID, err)
		}
	}
	return nil
}

// Logout only records the event. Tokens are stateless, so the transport
// clears the cookie and the token stays valid until it expires.
func (s *AuthService) Logout(ctx context.Context, actor *Actor) {
	s.securityLogger.LogLogout(ctx, actor.ID())
}

// TokenDuration is the lifetime of issued tokens, used for the cookie max-age.
func (s *AuthService) TokenDuration() time.Duration {
	return s.tokenManager.Duration()
}
