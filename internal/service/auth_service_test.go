package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/apihub-auth/internal/auth"
	"github.com/spec-kit/apihub-auth/internal/config"
	"github.com/spec-kit/apihub-auth/internal/domain"
	"github.com/spec-kit/apihub-auth/internal/events"
	"github.com/spec-kit/apihub-auth/internal/oauth"
	"github.com/spec-kit/apihub-auth/internal/observability"
	apperrors "github.com/spec-kit/apihub-auth/pkg/util"
)

// memoryRepo is an in-memory UserRepository mirroring the Postgres
// implementation's contract, including unique violations and ErrNoRows.
type memoryRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]*domain.User{}}
}

func (r *memoryRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.findBy(func(u *domain.User) bool { return u.Email == email })
}

func (r *memoryRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.findBy(func(u *domain.User) bool { return u.Username == username })
}

func (r *memoryRepo) findBy(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if match(user) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryRepo) update(id string, apply func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	apply(user)
	user.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepo) UpdateRefreshToken(_ context.Context, id, token string) error {
	return r.update(id, func(u *domain.User) { u.RefreshToken = token })
}

func (r *memoryRepo) ClearRefreshToken(_ context.Context, id string) error {
	return r.update(id, func(u *domain.User) { u.RefreshToken = "" })
}

func (r *memoryRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.update(id, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (r *memoryRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	return r.update(id, func(u *domain.User) { u.Role = role })
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	return r.update(id, func(u *domain.User) { u.Status = status })
}

func (r *memoryRepo) SetPasswordResetToken(_ context.Context, id, tokenHash string, expiry time.Time) error {
	return r.update(id, func(u *domain.User) {
		u.ForgotPasswordToken = tokenHash
		expiryCopy := expiry
		u.ForgotPasswordExpiry = &expiryCopy
	})
}

func (r *memoryRepo) RedeemPasswordReset(_ context.Context, tokenHash, newPasswordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ForgotPasswordToken == tokenHash && tokenHash != "" &&
			user.ForgotPasswordExpiry != nil && user.ForgotPasswordExpiry.After(time.Now()) {
			user.PasswordHash = newPasswordHash
			user.ForgotPasswordToken = ""
			user.ForgotPasswordExpiry = nil
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryRepo) SetEmailVerificationToken(_ context.Context, id, tokenHash string, expiry time.Time) error {
	return r.update(id, func(u *domain.User) {
		u.EmailVerificationToken = tokenHash
		expiryCopy := expiry
		u.EmailVerificationExpiry = &expiryCopy
	})
}

func (r *memoryRepo) RedeemEmailVerification(_ context.Context, tokenHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.EmailVerificationToken == tokenHash && tokenHash != "" &&
			user.EmailVerificationExpiry != nil && user.EmailVerificationExpiry.After(time.Now()) {
			user.EmailVerified = true
			user.EmailVerificationToken = ""
			user.EmailVerificationExpiry = nil
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// eventRecorder captures published events for assertions.
type eventRecorder struct {
	dispatcher events.Dispatcher
	mu         sync.Mutex
	captured   []events.Event
}

func newEventRecorder() *eventRecorder {
	rec := &eventRecorder{dispatcher: events.NewInMemoryDispatcher()}
	capture := func(_ context.Context, event events.Event) error {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.captured = append(rec.captured, event)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventUserRegistered,
		events.EventEmailVerificationRequested,
		events.EventPasswordResetRequested,
		events.EventPasswordChanged,
		events.EventRoleAssigned,
	} {
		rec.dispatcher.Subscribe(eventType, capture)
	}
	return rec
}

func (r *eventRecorder) ofType(eventType events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []events.Event
	for _, event := range r.captured {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func newTestService(repo *memoryRepo, rec *eventRecorder) *AuthService {
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:              "test-secret",
		AccessTokenTTLMinutes:  60,
		RefreshTokenTTLMinutes: 120,
		TempTokenTTLMinutes:    20,
		BcryptCost:             4,
	}}
	var dispatcher events.Dispatcher
	if rec != nil {
		dispatcher = rec.dispatcher
	}
	return NewAuthService(cfg, AuthDependencies{
		UserRepo:   repo,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
	})
}

func mustDomainError(t *testing.T, err error) *apperrors.DomainError {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	return domainErr
}

func registerUser(t *testing.T, svc *AuthService, username, email, password string) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), username, email, password)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return user
}

func TestRegister(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	rec := newEventRecorder()
	svc := newTestService(repo, rec)

	user := registerUser(t, svc, "alice", "Alice@Example.com ", "hunter22")

	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Role != domain.RoleUser || user.Status != domain.StatusActive {
		t.Fatalf("unexpected defaults: role=%q status=%q", user.Role, user.Status)
	}
	if user.LoginType != domain.LoginTypePassword {
		t.Fatalf("login type mismatch: %q", user.LoginType)
	}
	if user.PasswordHash == "hunter22" || user.PasswordHash == "" {
		t.Fatalf("password stored in the clear")
	}
	if user.EmailVerified {
		t.Fatalf("new password credential must start unverified")
	}

	stored, err := repo.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if stored.EmailVerificationToken == "" || stored.EmailVerificationExpiry == nil {
		t.Fatalf("verification token not issued on registration")
	}

	issued := rec.ofType(events.EventEmailVerificationRequested)
	if len(issued) != 1 {
		t.Fatalf("expected 1 verification event, got %d", len(issued))
	}
	payload, ok := issued[0].Payload.(events.OneTimeTokenPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", issued[0].Payload)
	}
	if auth.HashTemporaryToken(payload.Token) != stored.EmailVerificationToken {
		t.Fatalf("emailed token does not match the stored hash")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	_, err := svc.Register(context.Background(), "alice2", "alice@example.com", "hunter22")
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusConflict {
		t.Fatalf("status mismatch: got %d want %d", got, http.StatusConflict)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	created := registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	user, pair, err := svc.Login(context.Background(), "ALICE@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("logged in wrong user")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("token pair incomplete")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("access and refresh token identical")
	}

	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if stored.RefreshToken != pair.RefreshToken {
		t.Fatalf("refresh token not persisted before return")
	}

	claims, err := svc.TokenManager().ParseToken(pair.AccessToken, auth.TokenUseAccess)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.Subject != created.ID || claims.Role != domain.RoleUser {
		t.Fatalf("claims mismatch: subject=%q role=%q", claims.Subject, claims.Role)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	_, _, err := svc.Login(context.Background(), "nobody@example.com", "pass")
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusNotFound {
		t.Fatalf("status mismatch: got %d want %d", got, http.StatusNotFound)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	_, _, err := svc.Login(context.Background(), "alice@example.com", "wrong")
	domainErr := mustDomainError(t, err)
	if domainErr.HTTPStatus != http.StatusForbidden {
		t.Fatalf("status mismatch: got %d want %d", domainErr.HTTPStatus, http.StatusForbidden)
	}
	if domainErr.Message != "Invalid password" {
		t.Fatalf("message mismatch: %q", domainErr.Message)
	}
}

func TestLogin_InactiveAccount(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	user := registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	if err := repo.UpdateStatus(context.Background(), user.ID, domain.StatusInactive); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "alice@example.com", "hunter22")
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusForbidden {
		t.Fatalf("status mismatch: got %d want %d", got, http.StatusForbidden)
	}
}

func TestLogin_ProvenanceMismatch(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := newTestService(repo, nil)

	_, _, err := svc.LoginWithOAuth(context.Background(), string(domain.LoginTypeGoogle), &oauth.Profile{
		ProviderID: "g-1",
		Email:      "alice@example.com",
		Username:   "alice",
	})
	if err != nil {
		t.Fatalf("LoginWithOAuth error: %v", err)
	}

	_, _, err = svc.Login(context.Background(), "alice@example.com", "whatever")
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusConflict {
		t.Fatalf("status mismatch: got %d want %d", got, http.StatusConflict)
	}
}

func TestLoginWithOAuth_ProvisionsUser(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := newTestService(repo, newEventRecorder())

	user, pair, err := svc.LoginWithOAuth(context.Background(), string(domain.LoginTypeGithub), &oauth.Profile{
		ProviderID: "gh-1",
		Email:      "Bob@Example.com",
		Username:   "bob",
		AvatarURL:  "https://example.com/bob.png",
	})
	if err != nil {
		t.Fatalf("LoginWithOAuth error: %v", err)
	}

	if user.Email != "bob@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.LoginType != domain.LoginTypeGithub {
		t.Fatalf("login type mismatch: %q", user.LoginType)
	}
	if !user.EmailVerified {
		t.Fatalf("provider-verified email must be marked verified")
	}
	if user.PasswordHash == "" {
		t.Fatalf("placeholder password hash missing")
	}
	if pair.RefreshToken == "" {
		t.Fatalf("token pair missing")
	}

	// A second login with the same provider reuses the credential.
	again, _, err := svc.LoginWithOAuth(context.Background(), string(domain.LoginTypeGithub), &oauth.Profile{
		ProviderID: "gh-1",
		Email:      "bob@example.com",
		Username:   "bob",
	})
	if err != nil {
		t.Fatalf("second LoginWithOAuth error: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("second oauth login created a new credential")
	}
}

func TestLoginWithOAuth_UsernameCollision(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	registerUser(t, svc, "bob", "other@example.com", "hunter22")

	user, _, err := svc.LoginWithOAuth(context.Background(), string(domain.LoginTypeGoogle), &oauth.Profile{
		ProviderID: "g-2",
		Email:      "bob@example.com",
		Username:   "bob",
	})
	if err != nil {
		t.Fatalf("LoginWithOAuth error: %v", err)
	}
	if user.Username == "bob" {
		t.Fatalf("collided username was not replaced")
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	created := registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	_, first, err := svc.Login(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	_, second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if stored.RefreshToken != second.RefreshToken {
		t.Fatalf("rotated token not persisted")
	}

	// The superseded token is no longer accepted.
	_, _, err = svc.Refresh(context.Background(), first.RefreshToken)
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusUnauthorized {
		t.Fatalf("status mismatch for stale token: got %d want %d", got, http.StatusUnauthorized)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	_, pair, err := svc.Login(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusUnauthorized {
		t.Fatalf("status mismatch: got %d want %d", got, http.StatusUnauthorized)
	}
}

func TestLogout_RevokesRefresh(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	created := registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	_, pair, err := svc.Login(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if err := svc.Logout(context.Background(), created.ID); err != nil {
		t.Fatalf("Logout error: %v", err)
	}

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusUnauthorized {
		t.Fatalf("status mismatch after logout: got %d want %d", got, http.StatusUnauthorized)
	}
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	created := registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	if err := svc.ChangePassword(context.Background(), created.ID, "wrong", "newpass"); err == nil {
		t.Fatalf("expected error for wrong old password")
	}

	if err := svc.ChangePassword(context.Background(), created.ID, "hunter22", "newpass"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "alice@example.com", "newpass"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "alice@example.com", "hunter22"); err == nil {
		t.Fatalf("old password still accepted")
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	rec := newEventRecorder()
	svc := newTestService(repo, rec)
	registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	if err := svc.ForgotPassword(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword error: %v", err)
	}

	issued := rec.ofType(events.EventPasswordResetRequested)
	if len(issued) != 1 {
		t.Fatalf("expected 1 reset event, got %d", len(issued))
	}
	payload := issued[0].Payload.(events.OneTimeTokenPayload)

	if err := svc.ResetPassword(context.Background(), payload.Token, "brandnew"); err != nil {
		t.Fatalf("ResetPassword error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "alice@example.com", "brandnew"); err != nil {
		t.Fatalf("login after reset failed: %v", err)
	}

	// The token is single-use.
	err := svc.ResetPassword(context.Background(), payload.Token, "again")
	if got := mustDomainError(t, err).HTTPStatus; got != apperrors.StatusInvalidToken {
		t.Fatalf("status mismatch for replay: got %d want %d", got, apperrors.StatusInvalidToken)
	}
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	t.Parallel()

	rec := newEventRecorder()
	svc := newTestService(newMemoryRepo(), rec)

	if err := svc.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("ForgotPassword must not reveal unknown emails, got %v", err)
	}
	if len(rec.ofType(events.EventPasswordResetRequested)) != 0 {
		t.Fatalf("no reset event expected for unknown email")
	}
}

func TestResetPassword_BogusToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemoryRepo(), nil)
	err := svc.ResetPassword(context.Background(), "deadbeef", "whatever")
	if got := mustDomainError(t, err).HTTPStatus; got != apperrors.StatusInvalidToken {
		t.Fatalf("status mismatch: got %d want %d", got, apperrors.StatusInvalidToken)
	}
}

func TestVerifyEmail(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	rec := newEventRecorder()
	svc := newTestService(repo, rec)
	created := registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	issued := rec.ofType(events.EventEmailVerificationRequested)
	if len(issued) != 1 {
		t.Fatalf("expected 1 verification event, got %d", len(issued))
	}
	payload := issued[0].Payload.(events.OneTimeTokenPayload)

	verified, err := svc.VerifyEmail(context.Background(), payload.Token)
	if err != nil {
		t.Fatalf("VerifyEmail error: %v", err)
	}
	if verified.ID != created.ID || !verified.EmailVerified {
		t.Fatalf("verification did not apply")
	}

	// Replay fails with the dedicated status.
	_, err = svc.VerifyEmail(context.Background(), payload.Token)
	if got := mustDomainError(t, err).HTTPStatus; got != apperrors.StatusInvalidToken {
		t.Fatalf("status mismatch for replay: got %d want %d", got, apperrors.StatusInvalidToken)
	}
}

func TestResendVerification(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	rec := newEventRecorder()
	svc := newTestService(repo, rec)
	created := registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	if err := svc.ResendVerification(context.Background(), created.ID); err != nil {
		t.Fatalf("ResendVerification error: %v", err)
	}
	issued := rec.ofType(events.EventEmailVerificationRequested)
	if len(issued) != 2 {
		t.Fatalf("expected 2 verification events, got %d", len(issued))
	}

	// Only the newest token redeems.
	stale := issued[0].Payload.(events.OneTimeTokenPayload)
	fresh := issued[1].Payload.(events.OneTimeTokenPayload)
	if _, err := svc.VerifyEmail(context.Background(), stale.Token); err == nil {
		t.Fatalf("superseded verification token still redeems")
	}
	if _, err := svc.VerifyEmail(context.Background(), fresh.Token); err != nil {
		t.Fatalf("VerifyEmail error for fresh token: %v", err)
	}

	// Verified accounts cannot request another token.
	err := svc.ResendVerification(context.Background(), created.ID)
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusConflict {
		t.Fatalf("status mismatch: got %d want %d", got, http.StatusConflict)
	}
}

func TestAssignRole(t *testing.T) {
	t.Parallel()

	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	created := registerUser(t, svc, "alice", "alice@example.com", "hunter22")

	if err := svc.AssignRole(context.Background(), created.ID, domain.RoleSeller); err != nil {
		t.Fatalf("AssignRole error: %v", err)
	}
	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if stored.Role != domain.RoleSeller {
		t.Fatalf("role not applied: %q", stored.Role)
	}

	err = svc.AssignRole(context.Background(), created.ID, domain.Role("SUPERHERO"))
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusBadRequest {
		t.Fatalf("status mismatch for unknown role: got %d want %d", got, http.StatusBadRequest)
	}

	err = svc.AssignRole(context.Background(), uuid.NewString(), domain.RoleAdmin)
	if got := mustDomainError(t, err).HTTPStatus; got != http.StatusNotFound {
		t.Fatalf("status mismatch for unknown user: got %d want %d", got, http.StatusNotFound)
	}
}
