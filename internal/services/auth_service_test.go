package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/loungely/knowledge-backend/internal/domain"
	"github.com/loungely/knowledge-backend/internal/pkg/dbctx"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
)

type fakeUserRepo struct {
	repos.UserRepo
	user *domain.User
}

func (f *fakeUserRepo) GetByEmail(dbc dbctx.Context, email string) (*domain.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, nil
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	_, err := NewAuthService(nil, logger.NewNop(), &fakeUserRepo{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")

	t.Setenv("JWT_SECRET_KEY", "   ")
	_, err = NewAuthService(nil, logger.NewNop(), &fakeUserRepo{})
	require.Error(t, err)
}

func TestLoginAndVerifyTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		ID:       uuid.New(),
		Email:    "admin@example.com",
		Password: string(hash),
		Role:     "admin",
	}

	svc, err := NewAuthService(nil, logger.NewNop(), &fakeUserRepo{user: user})
	require.NoError(t, err)

	token, got, err := svc.Login(dbctx.Context{}, "admin@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, got.ID)

	claims, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: uuid.New(), Email: "admin@example.com", Password: string(hash)}

	svc, err := NewAuthService(nil, logger.NewNop(), &fakeUserRepo{user: user})
	require.NoError(t, err)

	_, _, wrongPass := svc.Login(dbctx.Context{}, "admin@example.com", "nope")
	_, _, unknown := svc.Login(dbctx.Context{}, "nobody@example.com", "hunter2hunter2")
	require.Error(t, wrongPass)
	require.Error(t, unknown)
	// Unknown email and wrong password are indistinguishable to the caller.
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}
