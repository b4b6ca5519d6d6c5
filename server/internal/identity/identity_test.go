package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/identity"
	"github.com/maynagashev/catalog/server/internal/mocks"
	"github.com/maynagashev/catalog/server/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

func newGateway(repo *mocks.IdentityRepository) *identity.Gateway {
	return identity.NewGateway(repo, identity.Config{Secret: testSecret, TokenTTL: time.Hour})
}

func confirmedIdentity(t *testing.T, password string) *models.Identity {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Identity{ID: "id-1", Email: "admin@example.com", PasswordHash: string(hash), EmailConfirmed: true}
}

func TestGateway_SignInAndVerify(t *testing.T) {
	repo := new(mocks.IdentityRepository)
	repo.On("GetIdentityByEmail", mock.Anything, "admin@example.com").
		Return(confirmedIdentity(t, "secret123"), nil).Once()
	g := newGateway(repo)

	token, err := g.SignIn(context.Background(), " admin@example.com ", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	principal, err := g.Verifier().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, identity.Principal{ID: "id-1", Email: "admin@example.com"}, principal)
	repo.AssertExpectations(t)
}

func TestGateway_SignInErrors(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(repo *mocks.IdentityRepository)
		password    string
		expectedErr error
	}{
		{
			name: "Неверный пароль",
			mockSetup: func(repo *mocks.IdentityRepository) {
				repo.On("GetIdentityByEmail", mock.Anything, "admin@example.com").
					Return(confirmedIdentity(t, "secret123"), nil)
			},
			password:    "wrong-password",
			expectedErr: identity.ErrInvalidCredentials,
		},
		{
			name: "Пользователь не найден",
			mockSetup: func(repo *mocks.IdentityRepository) {
				repo.On("GetIdentityByEmail", mock.Anything, "admin@example.com").
					Return(nil, repository.ErrIdentityNotFound)
			},
			password:    "secret123",
			expectedErr: identity.ErrInvalidCredentials,
		},
		{
			name: "Email не подтвержден",
			mockSetup: func(repo *mocks.IdentityRepository) {
				id := confirmedIdentity(t, "secret123")
				id.EmailConfirmed = false
				repo.On("GetIdentityByEmail", mock.Anything, "admin@example.com").Return(id, nil)
			},
			password:    "secret123",
			expectedErr: identity.ErrEmailNotConfirmed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.IdentityRepository)
			tt.mockSetup(repo)

			token, err := newGateway(repo).SignIn(context.Background(), "admin@example.com", tt.password)

			assert.Empty(t, token)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestVerifier_RejectsBadTokens(t *testing.T) {
	sign := func(claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.MapClaims{
		"user_id": "id-1", "iss": "catalog-server", "exp": time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "Пустой токен", token: ""},
		{name: "Мусор", token: "not-a-jwt"},
		{name: "Чужой ключ", token: sign(valid, jwt.SigningMethodHS256, []byte("other-secret"))},
		{
			name: "Истекший токен",
			token: sign(jwt.MapClaims{
				"user_id": "id-1", "iss": "catalog-server", "exp": time.Now().Add(-time.Minute).Unix(),
			}, jwt.SigningMethodHS256, testSecret),
		},
		{
			name:  "Без срока действия",
			token: sign(jwt.MapClaims{"user_id": "id-1", "iss": "catalog-server"}, jwt.SigningMethodHS256, testSecret),
		},
		{
			name: "Чужой издатель",
			token: sign(jwt.MapClaims{
				"user_id": "id-1", "iss": "someone-else", "exp": time.Now().Add(time.Hour).Unix(),
			}, jwt.SigningMethodHS256, testSecret),
		},
		{
			name:  "Алгоритм none",
			token: sign(valid, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
		},
	}

	v := identity.NewVerifier(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.ErrorIs(t, err, identity.ErrInvalidToken)
		})
	}

	t.Run("Валидный токен", func(t *testing.T) {
		p, err := v.Verify(sign(valid, jwt.SigningMethodHS256, testSecret))
		require.NoError(t, err)
		assert.Equal(t, "id-1", p.ID)
	})
}

func TestGateway_CreateIdentity(t *testing.T) {
	repo := new(mocks.IdentityRepository)
	repo.On("CreateIdentity", mock.Anything, mock.MatchedBy(func(i *models.Identity) bool {
		return i.Email == "new@example.com" && i.EmailConfirmed &&
			bcrypt.CompareHashAndPassword([]byte(i.PasswordHash), []byte("default-pass")) == nil
	})).Return(nil).Once()

	id, err := newGateway(repo).CreateIdentity(context.Background(), "new@example.com", "default-pass", true)

	require.NoError(t, err)
	assert.Len(t, id, 36, "ID должен быть UUID")
	repo.AssertExpectations(t)
}

func TestGateway_UpdatePasswordWeak(t *testing.T) {
	repo := new(mocks.IdentityRepository)

	err := newGateway(repo).UpdatePassword(context.Background(), "id-1", "123")

	require.ErrorIs(t, err, identity.ErrWeakPassword)
	repo.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
}
