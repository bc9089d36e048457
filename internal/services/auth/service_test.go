package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	redrepo "github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/redis"
	authsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/auth"
)

type fakeCredentials struct {
	record postgres.CredentialRecord
	err    error
}

func (f *fakeCredentials) GetByEmail(_ context.Context, _ string) (postgres.CredentialRecord, error) {
	if f.err != nil {
		return postgres.CredentialRecord{}, f.err
	}
	return f.record, nil
}

func newTestService(t *testing.T, creds authsvc.CredentialStore) *authsvc.Service {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := redrepo.NewSessionRepo(client)
	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	return authsvc.NewService(jwtManager, sessions, creds, 30*24*time.Hour)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func TestLoginAndValidate(t *testing.T) {
	creds := &fakeCredentials{record: postgres.CredentialRecord{
		ID:           "3f1c8a9e-0000-4000-8000-000000000001",
		Email:        "admin@soundbridge.live",
		Username:     "admin",
		Role:         enums.RoleAdmin,
		PasswordHash: hashPassword(t, "correct horse"),
	}}
	svc := newTestService(t, creds)

	result, err := svc.Login(context.Background(), "admin@soundbridge.live", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("Login returned empty tokens")
	}
	if result.Me.Role != enums.RoleAdmin {
		t.Errorf("Me.Role = %q, want admin", result.Me.Role)
	}

	claims, err := svc.ValidateAccessToken(context.Background(), result.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != creds.record.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, creds.record.ID)
	}
	if claims.Role != string(enums.RoleAdmin) {
		t.Errorf("claims.Role = %q, want admin", claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	creds := &fakeCredentials{record: postgres.CredentialRecord{
		ID:           "3f1c8a9e-0000-4000-8000-000000000001",
		Role:         enums.RoleUser,
		PasswordHash: hashPassword(t, "correct horse"),
	}}
	svc := newTestService(t, creds)

	_, err := svc.Login(context.Background(), "user@example.com", "battery staple")
	if !errors.Is(err, authsvc.ErrInvalidCredentials) {
		t.Fatalf("Login error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, &fakeCredentials{err: postgres.ErrProfileNotFound})

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, authsvc.ErrInvalidCredentials) {
		t.Fatalf("Login error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	creds := &fakeCredentials{record: postgres.CredentialRecord{
		ID:           "3f1c8a9e-0000-4000-8000-000000000002",
		Role:         enums.RoleUser,
		PasswordHash: hashPassword(t, "pw"),
	}}
	svc := newTestService(t, creds)

	login, err := svc.Login(context.Background(), "user@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("Refresh did not rotate the refresh token")
	}

	// the old refresh token must be dead after rotation
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("Refresh with stale token error = %v, want ErrUnauthorized", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	creds := &fakeCredentials{record: postgres.CredentialRecord{
		ID:           "3f1c8a9e-0000-4000-8000-000000000003",
		Role:         enums.RoleModerator,
		PasswordHash: hashPassword(t, "pw"),
	}}
	svc := newTestService(t, creds)

	login, err := svc.Login(context.Background(), "mod@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := svc.ValidateAccessToken(context.Background(), login.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.SID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(context.Background(), login.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("ValidateAccessToken after logout = %v, want ErrUnauthorized", err)
	}
}
