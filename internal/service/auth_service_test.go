package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/airops/netplan-api/internal/models"
	appErrors "github.com/airops/netplan-api/pkg/errors"
)

type stubUserRepo struct {
	user          *models.User
	refreshTokens map[string]*models.RefreshToken
	resetTokens   map[string]string
	passwords     map[string]string
	revokedAll    []string
	auditActions  []string
}

func newStubUserRepo(user *models.User) *stubUserRepo {
	return &stubUserRepo{
		user:          user,
		refreshTokens: make(map[string]*models.RefreshToken),
		resetTokens:   make(map[string]string),
		passwords:     make(map[string]string),
	}
}

func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return r.user, nil
}

func (r *stubUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return r.user, nil
}

func (r *stubUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (r *stubUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	r.passwords[id] = passwordHash
	return nil
}

func (r *stubUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	r.revokedAll = append(r.revokedAll, userID)
	return nil
}

func (r *stubUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	r.refreshTokens[token.Token] = token
	return nil
}

func (r *stubUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := r.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (r *stubUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range r.refreshTokens {
		if token.ID == id {
			token.Revoked = true
		}
	}
	return nil
}

func (r *stubUserRepo) CreateResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	r.resetTokens[token] = userID
	return nil
}

func (r *stubUserRepo) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	userID, ok := r.resetTokens[token]
	if !ok {
		return "", sql.ErrNoRows
	}
	delete(r.resetTokens, token)
	return userID, nil
}

func (r *stubUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.auditActions = append(r.auditActions, log.Action)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test_secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "netplan-api",
	}
}

func plannerUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "planner@example.com",
		PasswordHash: string(hash),
		FullName:     "Network Planner",
		Role:         models.RolePlanner,
		Active:       true,
	}
}

func TestLoginIssuesTokens(t *testing.T) {
	repo := newStubUserRepo(plannerUser(t, "secret123"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "planner@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RolePlanner, res.User.Role)
	assert.Contains(t, repo.auditActions, models.AuditActionLogin)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RolePlanner, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := newStubUserRepo(plannerUser(t, "secret123"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "planner@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	user := plannerUser(t, "secret123")
	user.Active = false
	svc := NewAuthService(newStubUserRepo(user), nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "planner@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newStubUserRepo(plannerUser(t, "secret123"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "planner@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, login.RefreshToken, res.RefreshToken)

	// the used token is revoked and cannot be replayed
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestPasswordResetFlow(t *testing.T) {
	repo := newStubUserRepo(plannerUser(t, "secret123"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	require.NoError(t, svc.RequestPasswordReset(context.Background(), models.ResetPasswordRequest{
		Email: "planner@example.com",
	}))
	require.Len(t, repo.resetTokens, 1)

	var token string
	for issued := range repo.resetTokens {
		token = issued
	}

	require.NoError(t, svc.ResetPassword(context.Background(), models.ConfirmResetPasswordRequest{
		Token:       token,
		NewPassword: "newsecret",
	}))

	newHash, ok := repo.passwords["user-1"]
	require.True(t, ok)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newsecret")))
	assert.Equal(t, []string{"user-1"}, repo.revokedAll, "other sessions must be revoked")

	// the token is single use
	err := svc.ResetPassword(context.Background(), models.ConfirmResetPasswordRequest{
		Token:       token,
		NewPassword: "again",
	})
	require.Error(t, err)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	repo := newStubUserRepo(plannerUser(t, "secret123"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	require.NoError(t, svc.RequestPasswordReset(context.Background(), models.ResetPasswordRequest{
		Email: "nobody@example.com",
	}))
	assert.Empty(t, repo.resetTokens)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	repo := newStubUserRepo(plannerUser(t, "secret123"))
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	otherCfg := testAuthConfig()
	otherCfg.AccessTokenSecret = "other_secret"
	other := NewAuthService(repo, nil, nil, otherCfg)

	login, err := other.Login(context.Background(), models.LoginRequest{
		Email:    "planner@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
