package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// IdentityAdmin - мок административных операций провайдера идентификации.
type IdentityAdmin struct {
	mock.Mock
}

func (m *IdentityAdmin) CreateIdentity(ctx context.Context, email, password string, emailConfirmed bool) (string, error) {
	args := m.Called(ctx, email, password, emailConfirmed)
	return args.String(0), args.Error(1)
}

func (m *IdentityAdmin) DeleteIdentity(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *IdentityAdmin) UpdatePassword(ctx context.Context, id, password string) error {
	return m.Called(ctx, id, password).Error(0)
}

// SignInProvider - мок входа по email и паролю.
type SignInProvider struct {
	mock.Mock
}

func (m *SignInProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}
