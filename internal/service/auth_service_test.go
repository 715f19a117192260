package service

import (
	"errors"
	"testing"
	"time"

	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
	"github.com/talentprobe/talentprobe-backend/internal/store/memstore"
)

func newAuthFixture(t *testing.T) (*AuthService, int64) {
	t.Helper()
	ctx := t.Context()

	st := memstore.New()
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4, // minimum cost keeps the test fast
	}
	auth := NewAuthService(cfg, st)

	org, err := st.CreateOrganization(ctx, "Acme Hiring")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}

	if _, err := auth.CreateUser(ctx, org.ID, model.CreateUserRequest{
		Email:    "recruiter@acme.test",
		Name:     "Sam Recruiter",
		Password: "hunter22",
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	return auth, org.ID
}

func TestLoginIssuesTenantScopedToken(t *testing.T) {
	ctx := t.Context()
	auth, orgID := newAuthFixture(t)

	resp, err := auth.Login(ctx, model.LoginRequest{
		Email:    "recruiter@acme.test",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}
	if resp.User.PasswordHash != "" {
		t.Fatal("login response must not carry the password hash; got one")
	}

	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.OrganizationID != orgID {
		t.Fatalf("claims org = %d, want %d", claims.OrganizationID, orgID)
	}
	if claims.UserID != resp.User.ID {
		t.Fatalf("claims user = %d, want %d", claims.UserID, resp.User.ID)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := t.Context()
	auth, _ := newAuthFixture(t)

	for name, req := range map[string]model.LoginRequest{
		"wrong password": {Email: "recruiter@acme.test", Password: "nope"},
		"unknown email":  {Email: "ghost@acme.test", Password: "hunter22"},
	} {
		if _, err := auth.Login(ctx, req); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: error = %v, want ErrInvalidCredentials", name, err)
		}
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	ctx := t.Context()
	auth, _ := newAuthFixture(t)

	resp, err := auth.Login(ctx, model.LoginRequest{
		Email:    "recruiter@acme.test",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := auth.ValidateToken(resp.Token + "x"); err == nil {
		t.Fatal("tampered token validated")
	}
	if _, err := auth.ValidateToken("not-a-jwt"); err == nil {
		t.Fatal("garbage token validated")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := t.Context()
	auth, orgID := newAuthFixture(t)

	_, err := auth.CreateUser(ctx, orgID, model.CreateUserRequest{
		Email:    "recruiter@acme.test",
		Name:     "Imposter",
		Password: "hunter22",
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("error = %v, want store.ErrConflict", err)
	}
}
