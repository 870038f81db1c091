package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/mleroux/taskforge/internal/apperror"
	"github.com/mleroux/taskforge/internal/password"
)

// genericLoginError is returned for both "no such user" and "wrong
// password". An attacker must not be able to learn which accounts exist
// from the error text.
const genericLoginError = "Incorrect email or password"

// MailSender is the outgoing-mail contract consumed by the password-reset
// flow. Implemented by internal/mailer.
type MailSender interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

// AuthService defines the session lifecycle contract. Handlers call these
// methods -- they never touch the repositories directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*User, TokenPair, error)
	Login(ctx context.Context, input LoginInput) (*User, TokenPair, error)

	// Logout deletes every refresh token of the acting user, resolved from
	// the authenticated user id if present, otherwise from the refresh
	// cookie. Idempotent: always succeeds, even with nothing to delete.
	Logout(ctx context.Context, userID, cookieToken string) error

	// Refresh rotates the presented refresh token in place and returns a
	// new token pair. The store lookup is authoritative: a signed token
	// that is no longer stored (rotated away or revoked) is rejected.
	Refresh(ctx context.Context, cookieToken string) (TokenPair, error)

	// Revoke deletes the single refresh token matching the cookie value.
	Revoke(ctx context.Context, cookieToken string) error

	// RevokeAll deletes every refresh token owned by the given user.
	RevokeAll(ctx context.Context, userID string) error

	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	CurrentUser(ctx context.Context, userID string) (*User, error)
	TokenInfo(ctx context.Context, cookieToken string) (*TokenInfo, error)
}

// authService implements AuthService with argon2id hashing, JWT signing,
// and MariaDB-backed token storage.
type authService struct {
	users  UserRepository
	store  TokenRepository
	tokens *TokenService
	mail   MailSender
	reset  time.Duration
}

// NewAuthService creates a new auth service with the given dependencies.
// resetTTL bounds how long an emailed password-reset token stays valid.
func NewAuthService(users UserRepository, store TokenRepository, tokens *TokenService, mail MailSender, resetTTL time.Duration) AuthService {
	return &authService{
		users:  users,
		store:  store,
		tokens: tokens,
		mail:   mail,
		reset:  resetTTL,
	}
}

// Register creates a new user account. It validates the email format and
// the password policy, checks email uniqueness, hashes the password with
// argon2id, persists the user, and opens a session.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, TokenPair, error) {
	if !validEmail(input.Email) {
		return nil, TokenPair{}, apperror.NewValidation("Invalid email address")
	}

	if violations := password.Validate(input.Password); len(violations) > 0 {
		return nil, TokenPair{}, apperror.NewValidationDetails(
			"Password does not meet the security policy",
			violations,
			password.Suggestions,
		)
	}

	// Check if email is already taken before doing expensive hashing.
	exists, err := s.users.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, TokenPair{}, apperror.NewConflict("An account with this email already exists")
	}

	// Hash the password with argon2id (memory-hard, GPU-resistant).
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Firstname:    input.Firstname,
		Lastname:     input.Lastname,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, pair, nil
}

// Login authenticates a user by email and password and opens a session.
func (s *authService) Login(ctx context.Context, input LoginInput) (*User, TokenPair, error) {
	if input.Email == "" || input.Password == "" {
		return nil, TokenPair{}, apperror.NewValidation("Email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if apperror.SafeCode(err) == 404 {
			// Identical message as the wrong-password branch below.
			return nil, TokenPair{}, apperror.NewAuthentication(genericLoginError)
		}
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !VerifyPassword(input.Password, user.PasswordHash) {
		return nil, TokenPair{}, apperror.NewAuthentication(genericLoginError)
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, pair, nil
}

// openSession issues a fresh token pair and replaces any stored refresh
// tokens for the user: delete-all then insert, so at most one live refresh
// token exists per user after issuance. The delete/insert pair is not
// atomic; concurrent logins may transiently leave extra rows, which Logout
// and RevokeAll clean up regardless of count.
func (s *authService) openSession(ctx context.Context, userID string) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return TokenPair{}, apperror.NewInternal(fmt.Errorf("issuing access token: %w", err))
	}
	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return TokenPair{}, apperror.NewInternal(fmt.Errorf("issuing refresh token: %w", err))
	}

	if _, err := s.store.DeleteByUser(ctx, userID); err != nil {
		return TokenPair{}, apperror.NewInternal(fmt.Errorf("replacing refresh tokens: %w", err))
	}

	now := time.Now().UTC()
	record := &RefreshToken{
		ID:        uuid.NewString(),
		Token:     refresh,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.RefreshTTL()),
	}
	if err := s.store.Insert(ctx, record); err != nil {
		return TokenPair{}, apperror.NewInternal(fmt.Errorf("storing refresh token: %w", err))
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Logout deletes all refresh tokens of the resolved user ("log out
// everywhere"). The user is resolved from the authenticated context when
// available, otherwise from the presented cookie's owner. Never fails:
// an unresolvable user simply means there is nothing to delete.
func (s *authService) Logout(ctx context.Context, userID, cookieToken string) error {
	if userID == "" && cookieToken != "" {
		record, err := s.store.FindByToken(ctx, cookieToken)
		if err == nil {
			userID = record.UserID
		}
	}

	if userID == "" {
		return nil
	}

	n, err := s.store.DeleteByUser(ctx, userID)
	if err != nil {
		// Logout is best-effort; the cookie is cleared regardless.
		slog.Warn("logout token cleanup failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return nil
	}

	slog.Info("user logged out",
		slog.String("user_id", userID),
		slog.Int64("tokens_deleted", n),
	)
	return nil
}

// Refresh validates the presented refresh token against the store, then
// rotates it in place: the stored row keeps its identity but receives a
// new token value and timestamps. The old value is rejected from the
// moment the update lands.
func (s *authService) Refresh(ctx context.Context, cookieToken string) (TokenPair, error) {
	// Signature cross-check. The store lookup below is authoritative for
	// liveness; this rejects forgeries without touching the database.
	if _, err := s.tokens.VerifyRefreshToken(cookieToken); err != nil {
		return TokenPair{}, apperror.NewAuthentication("Refresh token invalid")
	}

	record, err := s.store.FindByToken(ctx, cookieToken)
	if err != nil {
		return TokenPair{}, apperror.NewAuthentication("Refresh token invalid")
	}

	// The owning account may have been deleted while the token lived.
	if _, err := s.users.FindByID(ctx, record.UserID); err != nil {
		if _, delErr := s.store.DeleteByUser(ctx, record.UserID); delErr != nil {
			slog.Warn("orphan token cleanup failed",
				slog.String("user_id", record.UserID),
				slog.Any("error", delErr),
			)
		}
		return TokenPair{}, apperror.NewAuthentication("User not found")
	}

	access, err := s.tokens.IssueAccessToken(record.UserID)
	if err != nil {
		return TokenPair{}, apperror.NewInternal(fmt.Errorf("issuing access token: %w", err))
	}
	refresh, err := s.tokens.IssueRefreshToken(record.UserID)
	if err != nil {
		return TokenPair{}, apperror.NewInternal(fmt.Errorf("issuing refresh token: %w", err))
	}

	now := time.Now().UTC()
	if err := s.store.Rotate(ctx, record.ID, refresh, now, now.Add(s.tokens.RefreshTTL())); err != nil {
		return TokenPair{}, apperror.NewInternal(fmt.Errorf("rotating refresh token: %w", err))
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Revoke deletes the single refresh token matching the cookie value.
func (s *authService) Revoke(ctx context.Context, cookieToken string) error {
	if err := s.store.DeleteByToken(ctx, cookieToken); err != nil {
		if apperror.SafeCode(err) == 404 {
			return apperror.NewAuthentication("Refresh token invalid")
		}
		return apperror.NewInternal(fmt.Errorf("revoking token: %w", err))
	}
	return nil
}

// RevokeAll deletes every refresh token owned by the authenticated caller.
func (s *authService) RevokeAll(ctx context.Context, userID string) error {
	n, err := s.store.DeleteByUser(ctx, userID)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("revoking all tokens: %w", err))
	}

	slog.Info("all sessions revoked",
		slog.String("user_id", userID),
		slog.Int64("tokens_deleted", n),
	)
	return nil
}

// ChangePassword verifies the old password, re-runs the policy gate on the
// new one, and re-hashes.
func (s *authService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.NewValidation("Old and new passwords are required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperror.SafeCode(err) == 404 {
			return apperror.NewAuthentication("User not found")
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !VerifyPassword(oldPassword, user.PasswordHash) {
		return apperror.NewValidation("Old password is incorrect")
	}

	if violations := password.Validate(newPassword); len(violations) > 0 {
		return apperror.NewValidationDetails(
			"Password does not meet the security policy",
			violations,
			password.Suggestions,
		)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating password: %w", err))
	}

	slog.Info("password changed", slog.String("user_id", userID))
	return nil
}

// ForgotPassword starts the anonymous reset flow: a random token is stored
// (hashed) on the user record with a short expiry and emailed in plaintext.
// The outcome is identical whether or not the email matches an account, so
// the endpoint can't be used to enumerate users.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	if !validEmail(email) {
		return apperror.NewValidation("Invalid email address")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		// Pretend success; log for operators.
		slog.Info("password reset requested for unknown email", slog.String("email", email))
		return nil
	}

	plaintext, hash, err := NewResetToken()
	if err != nil {
		return apperror.NewInternal(err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, hash, time.Now().UTC().Add(s.reset)); err != nil {
		return apperror.NewInternal(fmt.Errorf("storing reset token: %w", err))
	}

	if err := s.mail.SendPasswordReset(ctx, user.Email, plaintext); err != nil {
		// Don't leak delivery failures to the caller either.
		slog.Error("sending reset email failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return nil
	}

	slog.Info("password reset email sent", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword completes the anonymous reset flow with the emailed token.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperror.NewValidation("Token and new password are required")
	}

	user, err := s.users.FindByResetHash(ctx, HashResetToken(token))
	if err != nil {
		return apperror.NewValidation("Reset token invalid or expired")
	}

	if violations := password.Validate(newPassword); len(violations) > 0 {
		return apperror.NewValidationDetails(
			"Password does not meet the security policy",
			violations,
			password.Suggestions,
		)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperror.NewInternal(fmt.Errorf("updating password: %w", err))
	}
	if err := s.users.ClearResetToken(ctx, user.ID); err != nil {
		return apperror.NewInternal(fmt.Errorf("clearing reset token: %w", err))
	}

	slog.Info("password reset completed", slog.String("user_id", user.ID))
	return nil
}

// CurrentUser re-resolves the authenticated user's record.
func (s *authService) CurrentUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperror.SafeCode(err) == 404 {
			return nil, apperror.NewNotFound("User not found")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	return user, nil
}

// TokenInfo returns creation and expiry metadata for the presented refresh
// token along with its owner's public fields.
func (s *authService) TokenInfo(ctx context.Context, cookieToken string) (*TokenInfo, error) {
	record, err := s.store.FindByToken(ctx, cookieToken)
	if err != nil {
		return nil, apperror.NewAuthentication("Refresh token invalid")
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, apperror.NewAuthentication("User not found")
	}

	return &TokenInfo{
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
		User:      user,
	}, nil
}

// validEmail reports whether the address parses as a bare RFC 5322 address
// with a domain part.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	return true
}
