package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mleroux/taskforge/internal/apperror"
)

// --- Mock Repositories ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn          func(ctx context.Context, user *User) error
	findByIDFn        func(ctx context.Context, id string) (*User, error)
	findByEmailFn     func(ctx context.Context, email string) (*User, error)
	emailExistsFn     func(ctx context.Context, email string) (bool, error)
	updatePasswordFn  func(ctx context.Context, userID, passwordHash string) error
	setResetTokenFn   func(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	findByResetHashFn func(ctx context.Context, tokenHash string) (*User, error)
	clearResetTokenFn func(ctx context.Context, userID string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, passwordHash)
	}
	return nil
}

func (m *mockUserRepo) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if m.setResetTokenFn != nil {
		return m.setResetTokenFn(ctx, userID, tokenHash, expiresAt)
	}
	return nil
}

func (m *mockUserRepo) FindByResetHash(ctx context.Context, tokenHash string) (*User, error) {
	if m.findByResetHashFn != nil {
		return m.findByResetHashFn(ctx, tokenHash)
	}
	return nil, apperror.NewNotFound("token not found")
}

func (m *mockUserRepo) ClearResetToken(ctx context.Context, userID string) error {
	if m.clearResetTokenFn != nil {
		return m.clearResetTokenFn(ctx, userID)
	}
	return nil
}

// mockTokenRepo implements TokenRepository for testing.
type mockTokenRepo struct {
	insertFn        func(ctx context.Context, token *RefreshToken) error
	findByTokenFn   func(ctx context.Context, token string) (*RefreshToken, error)
	rotateFn        func(ctx context.Context, id, newToken string, createdAt, expiresAt time.Time) error
	deleteByTokenFn func(ctx context.Context, token string) error
	deleteByUserFn  func(ctx context.Context, userID string) (int64, error)
	deleteExpiredFn func(ctx context.Context) (int64, error)
	deleteOrphansFn func(ctx context.Context) (int64, error)
}

func (m *mockTokenRepo) Insert(ctx context.Context, token *RefreshToken) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, token)
	}
	return nil
}

func (m *mockTokenRepo) FindByToken(ctx context.Context, token string) (*RefreshToken, error) {
	if m.findByTokenFn != nil {
		return m.findByTokenFn(ctx, token)
	}
	return nil, apperror.NewNotFound("token not found")
}

func (m *mockTokenRepo) Rotate(ctx context.Context, id, newToken string, createdAt, expiresAt time.Time) error {
	if m.rotateFn != nil {
		return m.rotateFn(ctx, id, newToken, createdAt, expiresAt)
	}
	return nil
}

func (m *mockTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	if m.deleteByTokenFn != nil {
		return m.deleteByTokenFn(ctx, token)
	}
	return nil
}

func (m *mockTokenRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if m.deleteByUserFn != nil {
		return m.deleteByUserFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return 0, nil
}

func (m *mockTokenRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	if m.deleteOrphansFn != nil {
		return m.deleteOrphansFn(ctx)
	}
	return 0, nil
}

// --- Mock Mail Sender ---

type mockMailSender struct {
	sendFn func(ctx context.Context, to, token string) error
	// Capture fields for assertions.
	lastTo    string
	lastToken string
	sendCount int
}

func (m *mockMailSender) SendPasswordReset(ctx context.Context, to, token string) error {
	m.lastTo = to
	m.lastToken = token
	m.sendCount++
	if m.sendFn != nil {
		return m.sendFn(ctx, to, token)
	}
	return nil
}

// --- Test Helpers ---

func newTestService(users *mockUserRepo, store *mockTokenRepo, mail *mockMailSender) AuthService {
	if users == nil {
		users = &mockUserRepo{}
	}
	if store == nil {
		store = &mockTokenRepo{}
	}
	if mail == nil {
		mail = &mockMailSender{}
	}
	return NewAuthService(users, store, NewTokenService(testAuthConfig()), mail, time.Hour)
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) *apperror.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
	return appErr
}

func testUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}
	return &User{
		ID:           "user-1",
		Firstname:    "Alice",
		Lastname:     "Martin",
		Email:        "alice@example.com",
		PasswordHash: hash,
	}
}

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	var created *User
	var inserted *RefreshToken
	var deletedFirst bool
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			created = user
			return nil
		},
	}
	store := &mockTokenRepo{
		deleteByUserFn: func(ctx context.Context, userID string) (int64, error) {
			deletedFirst = inserted == nil
			return 0, nil
		},
		insertFn: func(ctx context.Context, token *RefreshToken) error {
			inserted = token
			return nil
		},
	}

	svc := newTestService(users, store, nil)
	user, pair, err := svc.Register(context.Background(), RegisterInput{
		Firstname: "Alice",
		Lastname:  "Martin",
		Email:     "alice@example.com",
		Password:  "Str0ng!Pass",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == "" {
		t.Error("expected user ID to be generated")
	}
	if created == nil || created.PasswordHash == "" {
		t.Fatal("expected user to be persisted with a password hash")
	}
	if created.PasswordHash == "Str0ng!Pass" {
		t.Error("password must not be stored in plaintext")
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Error("expected both tokens to be issued")
	}
	if inserted == nil {
		t.Fatal("expected the refresh token to be stored")
	}
	if inserted.Token != pair.Refresh {
		t.Error("stored token does not match the issued refresh token")
	}
	if inserted.UserID != user.ID {
		t.Errorf("stored token owned by %s, expected %s", inserted.UserID, user.ID)
	}
	if !deletedFirst {
		t.Error("expected prior tokens to be deleted before inserting")
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	for _, email := range []string{"", "nope", "a b@example.com", "Alice <alice@example.com>"} {
		_, _, err := svc.Register(context.Background(), RegisterInput{
			Email:    email,
			Password: "Str0ng!Pass",
		})
		assertAppError(t, err, 400)
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: "weak",
	})
	appErr := assertAppError(t, err, 400)
	if len(appErr.Details) == 0 {
		t.Error("expected the violation list in Details")
	}
	if len(appErr.Suggestions) == 0 {
		t.Error("expected remediation Suggestions")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(users, nil, nil)
	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Password: "Str0ng!Pass",
	})
	assertAppError(t, err, 409)
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	user := testUser(t, "Str0ng!Pass")
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}
	svc := newTestService(users, nil, nil)
	got, pair, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "Str0ng!Pass",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.ID)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Error("expected both tokens to be issued")
	}
}

func TestLogin_EmptyCredentials(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	_, _, err := svc.Login(context.Background(), LoginInput{})
	assertAppError(t, err, 400)
}

func TestLogin_IndistinguishableFailures(t *testing.T) {
	// Unknown email and wrong password must produce byte-identical errors.
	unknownUsers := &mockUserRepo{} // FindByEmail returns 404
	svc := newTestService(unknownUsers, nil, nil)
	_, _, errUnknown := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "Str0ng!Pass",
	})
	unknownErr := assertAppError(t, errUnknown, 401)

	user := testUser(t, "Str0ng!Pass")
	knownUsers := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}
	svc = newTestService(knownUsers, nil, nil)
	_, _, errWrong := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "Wr0ng!Pass1",
	})
	wrongErr := assertAppError(t, errWrong, 401)

	if unknownErr.Message != wrongErr.Message {
		t.Errorf("login failures leak account existence: %q vs %q", unknownErr.Message, wrongErr.Message)
	}
}

// --- Logout Tests ---

func TestLogout_DeletesAllUserTokens(t *testing.T) {
	var deletedUser string
	store := &mockTokenRepo{
		deleteByUserFn: func(ctx context.Context, userID string) (int64, error) {
			deletedUser = userID
			return 2, nil
		},
	}
	svc := newTestService(nil, store, nil)
	if err := svc.Logout(context.Background(), "user-1", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deletedUser != "user-1" {
		t.Errorf("expected tokens of user-1 deleted, got %q", deletedUser)
	}
}

func TestLogout_ResolvesUserFromCookie(t *testing.T) {
	var deletedUser string
	store := &mockTokenRepo{
		findByTokenFn: func(ctx context.Context, token string) (*RefreshToken, error) {
			return &RefreshToken{ID: "t-1", Token: token, UserID: "user-2"}, nil
		},
		deleteByUserFn: func(ctx context.Context, userID string) (int64, error) {
			deletedUser = userID
			return 1, nil
		},
	}
	svc := newTestService(nil, store, nil)
	if err := svc.Logout(context.Background(), "", "some-cookie-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deletedUser != "user-2" {
		t.Errorf("expected tokens of user-2 deleted, got %q", deletedUser)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	// Nothing to resolve, nothing to delete: still succeeds.
	svc := newTestService(nil, nil, nil)
	if err := svc.Logout(context.Background(), "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Store failure is swallowed too.
	store := &mockTokenRepo{
		deleteByUserFn: func(ctx context.Context, userID string) (int64, error) {
			return 0, errors.New("db down")
		},
	}
	svc = newTestService(nil, store, nil)
	if err := svc.Logout(context.Background(), "user-1", ""); err != nil {
		t.Fatalf("expected logout to swallow store errors, got %v", err)
	}
}

// --- Refresh Tests ---

func TestRefresh_RotatesInPlace(t *testing.T) {
	tokens := NewTokenService(testAuthConfig())
	oldToken, err := tokens.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("issuing test token: %v", err)
	}

	var rotatedID, rotatedToken string
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id}, nil
		},
	}
	store := &mockTokenRepo{
		findByTokenFn: func(ctx context.Context, token string) (*RefreshToken, error) {
			if token != oldToken {
				return nil, apperror.NewNotFound("token not found")
			}
			return &RefreshToken{ID: "row-1", Token: token, UserID: "user-1"}, nil
		},
		rotateFn: func(ctx context.Context, id, newToken string, createdAt, expiresAt time.Time) error {
			rotatedID, rotatedToken = id, newToken
			return nil
		},
	}

	svc := NewAuthService(users, store, tokens, &mockMailSender{}, time.Hour)
	pair, err := svc.Refresh(context.Background(), oldToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rotatedID != "row-1" {
		t.Errorf("expected row-1 rotated, got %q", rotatedID)
	}
	if rotatedToken != pair.Refresh {
		t.Error("expected the stored row to receive the new token value")
	}
	if pair.Refresh == oldToken {
		t.Error("expected a fresh refresh token, got the old one back")
	}
	if pair.Access == "" {
		t.Error("expected a new access token")
	}
}

func TestRefresh_ForgedToken(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	_, err := svc.Refresh(context.Background(), "not-a-signed-token")
	assertAppError(t, err, 401)
}

func TestRefresh_RotatedAwayToken(t *testing.T) {
	// Validly signed, but no longer in the store: the store is authoritative.
	tokens := NewTokenService(testAuthConfig())
	oldToken, err := tokens.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("issuing test token: %v", err)
	}

	svc := NewAuthService(&mockUserRepo{}, &mockTokenRepo{}, tokens, &mockMailSender{}, time.Hour)
	_, err = svc.Refresh(context.Background(), oldToken)
	assertAppError(t, err, 401)
}

func TestRefresh_DeletedUserCleansUp(t *testing.T) {
	tokens := NewTokenService(testAuthConfig())
	oldToken, err := tokens.IssueRefreshToken("ghost")
	if err != nil {
		t.Fatalf("issuing test token: %v", err)
	}

	var cleanedUser string
	store := &mockTokenRepo{
		findByTokenFn: func(ctx context.Context, token string) (*RefreshToken, error) {
			return &RefreshToken{ID: "row-1", Token: token, UserID: "ghost"}, nil
		},
		deleteByUserFn: func(ctx context.Context, userID string) (int64, error) {
			cleanedUser = userID
			return 1, nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, store, tokens, &mockMailSender{}, time.Hour)
	_, err = svc.Refresh(context.Background(), oldToken)
	assertAppError(t, err, 401)
	if cleanedUser != "ghost" {
		t.Errorf("expected orphaned tokens of ghost deleted, got %q", cleanedUser)
	}
}

// --- Revoke Tests ---

func TestRevoke_UnknownToken(t *testing.T) {
	store := &mockTokenRepo{
		deleteByTokenFn: func(ctx context.Context, token string) error {
			return apperror.NewNotFound("token not found")
		},
	}
	svc := newTestService(nil, store, nil)
	err := svc.Revoke(context.Background(), "gone")
	assertAppError(t, err, 401)
}

func TestRevokeAll(t *testing.T) {
	var deletedUser string
	store := &mockTokenRepo{
		deleteByUserFn: func(ctx context.Context, userID string) (int64, error) {
			deletedUser = userID
			return 3, nil
		},
	}
	svc := newTestService(nil, store, nil)
	if err := svc.RevokeAll(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deletedUser != "user-1" {
		t.Errorf("expected tokens of user-1 deleted, got %q", deletedUser)
	}
}

// --- Password Change / Reset Tests ---

func TestChangePassword_WrongOldPassword(t *testing.T) {
	user := testUser(t, "Str0ng!Pass")
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return user, nil
		},
	}
	svc := newTestService(users, nil, nil)
	err := svc.ChangePassword(context.Background(), "user-1", "Wr0ng!Pass1", "N3w!Secret")
	assertAppError(t, err, 400)
}

func TestChangePassword_Success(t *testing.T) {
	user := testUser(t, "Str0ng!Pass")
	var newHash string
	users := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return user, nil
		},
		updatePasswordFn: func(ctx context.Context, userID, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}
	svc := newTestService(users, nil, nil)
	if err := svc.ChangePassword(context.Background(), "user-1", "Str0ng!Pass", "N3w!Secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newHash == "" {
		t.Fatal("expected the password hash to be updated")
	}
	if !VerifyPassword("N3w!Secret", newHash) {
		t.Error("stored hash does not match the new password")
	}
}

func TestForgotPassword_UnknownEmailPretendsSuccess(t *testing.T) {
	mail := &mockMailSender{}
	svc := newTestService(nil, nil, mail) // FindByEmail returns 404
	if err := svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}
	if mail.sendCount != 0 {
		t.Error("no email must be sent for unknown addresses")
	}
}

func TestForgotPassword_StoresHashEmailsPlaintext(t *testing.T) {
	user := testUser(t, "Str0ng!Pass")
	var storedHash string
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
		setResetTokenFn: func(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
			storedHash = tokenHash
			return nil
		},
	}
	mail := &mockMailSender{}
	svc := newTestService(users, nil, mail)
	if err := svc.ForgotPassword(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mail.sendCount != 1 {
		t.Fatalf("expected one reset email, got %d", mail.sendCount)
	}
	if mail.lastTo != user.Email {
		t.Errorf("reset email sent to %q, expected %q", mail.lastTo, user.Email)
	}
	if storedHash == mail.lastToken {
		t.Error("the stored value must be the hash, not the plaintext token")
	}
	if HashResetToken(mail.lastToken) != storedHash {
		t.Error("stored hash does not match the emailed token")
	}
}

func TestForgotPassword_MailFailureHidden(t *testing.T) {
	user := testUser(t, "Str0ng!Pass")
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}
	mail := &mockMailSender{
		sendFn: func(ctx context.Context, to, token string) error {
			return errors.New("smtp down")
		},
	}
	svc := newTestService(users, nil, mail)
	if err := svc.ForgotPassword(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("expected delivery failures to be hidden, got %v", err)
	}
}

func TestResetPassword_InvalidToken(t *testing.T) {
	svc := newTestService(nil, nil, nil) // FindByResetHash returns 404
	err := svc.ResetPassword(context.Background(), "bogus", "N3w!Secret")
	assertAppError(t, err, 400)
}

func TestResetPassword_Success(t *testing.T) {
	user := testUser(t, "Str0ng!Pass")
	plaintext, hash, err := NewResetToken()
	if err != nil {
		t.Fatalf("creating test token: %v", err)
	}

	var updated, cleared bool
	users := &mockUserRepo{
		findByResetHashFn: func(ctx context.Context, tokenHash string) (*User, error) {
			if tokenHash != hash {
				return nil, apperror.NewNotFound("token not found")
			}
			return user, nil
		},
		updatePasswordFn: func(ctx context.Context, userID, passwordHash string) error {
			updated = true
			return nil
		},
		clearResetTokenFn: func(ctx context.Context, userID string) error {
			cleared = true
			return nil
		},
	}
	svc := newTestService(users, nil, nil)
	if err := svc.ResetPassword(context.Background(), plaintext, "N3w!Secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Error("expected the password to be updated")
	}
	if !cleared {
		t.Error("expected the reset token to be cleared after use")
	}
}
