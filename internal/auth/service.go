package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pkgauth "github.com/gymstore/backend/pkg/auth"
	"github.com/gymstore/backend/pkg/auth/session"
	"github.com/gymstore/backend/pkg/config"
	"github.com/gymstore/backend/pkg/db/models"
	"github.com/gymstore/backend/pkg/enums"
	pkgerrors "github.com/gymstore/backend/pkg/errors"
	"github.com/gymstore/backend/pkg/logger"
	"github.com/gymstore/backend/pkg/mailer"
	"github.com/gymstore/backend/pkg/metrics"
	"github.com/gymstore/backend/pkg/security"
)

type otpStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	OTPKey(purpose, userID string) string
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service implements registration, email verification, and the session
// lifecycle.
type Service struct {
	repo     *Repository
	otp      otpStore
	sessions sessionManager
	mail     mailer.Sender
	metrics  *metrics.StoreMetrics
	logg     *logger.Logger
	cfg      *config.Config
	now      func() time.Time
}

// NewService builds the auth service. The mail sender and metrics may be nil
// in tests.
func NewService(repo *Repository, otp otpStore, sessions sessionManager, mail mailer.Sender, m *metrics.StoreMetrics, logg *logger.Logger, cfg *config.Config) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auth repository required")
	}
	if otp == nil {
		return nil, fmt.Errorf("otp store required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	return &Service{
		repo:     repo,
		otp:      otp,
		sessions: sessions,
		mail:     mail,
		metrics:  m,
		logg:     logg,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// Register creates an unverified account and emails a one-time code. The
// account cannot sign in until the code is confirmed.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*UserView, error) {
	email := normalizeEmail(input.Email)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up account")
	}

	hash, err := security.HashPassword(input.Password, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:         email,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		Phone:         input.Phone,
		Role:          enums.MemberRoleCustomer,
		EmailVerified: false,
		IsActive:      true,
	}
	if _, err := s.repo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}

	if err := s.issueVerificationCode(ctx, user); err != nil {
		// the account exists; the code can be re-sent
		if s.logg != nil {
			s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "auth.otp.issue_failed", err)
		}
	}

	view := toUserView(user)
	return &view, nil
}

// ResendVerification issues a fresh code for an unverified account. Unknown
// addresses get the same response so the endpoint cannot be used to probe for
// accounts.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up account")
	}
	if user.EmailVerified {
		return nil
	}
	if err := s.issueVerificationCode(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "issue verification code")
	}
	return nil
}

// VerifyEmail confirms the one-time code and activates sign-in for the
// account. Confirming an already-verified account is a no-op.
func (s *Service) VerifyEmail(ctx context.Context, input VerifyEmailInput) (*UserView, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired verification code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up account")
	}

	if !user.EmailVerified {
		key := s.otp.OTPKey(enums.OTPPurposeVerifyEmail.String(), user.ID.String())
		stored, err := s.otp.Get(ctx, key)
		if err != nil {
			if errors.Is(err, redislib.Nil) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired verification code")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load verification code")
		}
		if subtle.ConstantTimeCompare([]byte(stored), []byte(input.Code)) != 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired verification code")
		}

		if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark email verified")
		}
		if err := s.otp.Del(ctx, key); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "auth.otp.delete_failed")
		}
		user.EmailVerified = true
	}

	view := toUserView(user)
	return &view, nil
}

// Login checks credentials and opens a session. The same error covers unknown
// addresses and wrong passwords.
func (s *Service) Login(ctx context.Context, input LoginInput) (*SessionResult, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up account")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}
	if !user.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email address is not verified")
	}

	result, err := s.openSession(ctx, user, session.NewAccessID())
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "auth.last_login.update_failed")
	}
	return result, nil
}

// Refresh rotates the session behind an access token that may already be
// expired. The old refresh token is burned either way.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) (*SessionResult, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.cfg.JWT, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		_ = s.sessions.Revoke(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
	}

	return s.mintSession(user, newAccessID, newRefresh)
}

// Logout revokes the session tied to the presented token. Expired tokens are
// still accepted so stale sessions can be cleaned up.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.cfg.JWT, accessToken)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *Service) openSession(ctx context.Context, user *models.User, accessID string) (*SessionResult, error) {
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}
	return s.mintSession(user, accessID, refresh)
}

func (s *Service) mintSession(user *models.User, accessID, refresh string) (*SessionResult, error) {
	now := s.now()
	token, err := pkgauth.MintAccessToken(s.cfg.JWT, now, pkgauth.AccessTokenPayload{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		JTI:           accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &SessionResult{
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.cfg.JWT.AccessTokenTTL()),
		User:         toUserView(user),
	}, nil
}

func (s *Service) issueVerificationCode(ctx context.Context, user *models.User) error {
	code, err := security.GenerateOTPCode(s.cfg.OTP.Digits)
	if err != nil {
		return err
	}

	key := s.otp.OTPKey(enums.OTPPurposeVerifyEmail.String(), user.ID.String())
	if err := s.otp.Set(ctx, key, code, s.cfg.OTP.TTL); err != nil {
		return err
	}

	s.sendVerificationEmail(ctx, user, code)
	return nil
}

func (s *Service) sendVerificationEmail(ctx context.Context, user *models.User, code string) {
	if s.mail == nil {
		return
	}
	msg := mailer.Message{
		To:     user.Email,
		ToName: fmt.Sprintf("%s %s", user.FirstName, user.LastName),
		Subject: fmt.Sprintf(
			"Your verification code is %s", code,
		),
		PlainText: fmt.Sprintf(
			"Welcome!\n\nEnter this code to verify your email address: %s\n\nThe code expires in %s.",
			code, s.cfg.OTP.TTL,
		),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.metrics.IncEmailFailed("email_verification")
		if s.logg != nil {
			s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "auth.email.failed", err)
		}
		return
	}
	s.metrics.IncEmailSent("email_verification")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
