// Package mocks содержит testify-моки репозиториев для тестов сервисного слоя.
package mocks

import (
	"context"

	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/query"
	"github.com/maynagashev/catalog/server/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Проверки соответствия интерфейсам.
var (
	_ repository.IdentityRepository = (*IdentityRepository)(nil)
	_ repository.ProfileRepository  = (*ProfileRepository)(nil)
	_ repository.EntryRepository    = (*EntryRepository)(nil)
	_ repository.SettingsRepository = (*SettingsRepository)(nil)
)

// IdentityRepository - мок repository.IdentityRepository.
type IdentityRepository struct {
	mock.Mock
}

func (m *IdentityRepository) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	return m.Called(ctx, identity).Error(0)
}

func (m *IdentityRepository) GetIdentityByID(ctx context.Context, id string) (*models.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(*models.Identity)
	return identity, args.Error(1)
}

func (m *IdentityRepository) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	args := m.Called(ctx, email)
	identity, _ := args.Get(0).(*models.Identity)
	return identity, args.Error(1)
}

func (m *IdentityRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *IdentityRepository) DeleteIdentity(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// ProfileRepository - мок repository.ProfileRepository.
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *ProfileRepository) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *ProfileRepository) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	args := m.Called(ctx)
	profiles, _ := args.Get(0).([]models.Profile)
	return profiles, args.Error(1)
}

func (m *ProfileRepository) ListProfilesByRole(ctx context.Context, role models.Role) ([]models.Profile, error) {
	args := m.Called(ctx, role)
	profiles, _ := args.Get(0).([]models.Profile)
	return profiles, args.Error(1)
}

func (m *ProfileRepository) DeleteProfile(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// EntryRepository - мок repository.EntryRepository.
type EntryRepository struct {
	mock.Mock
}

func (m *EntryRepository) ListEntries(ctx context.Context, predicate query.Predicate) ([]models.Entry, error) {
	args := m.Called(ctx, predicate)
	entries, _ := args.Get(0).([]models.Entry)
	return entries, args.Error(1)
}

func (m *EntryRepository) GetEntryByID(ctx context.Context, id string) (*models.Entry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*models.Entry)
	return entry, args.Error(1)
}

func (m *EntryRepository) CreateEntry(ctx context.Context, entry *models.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *EntryRepository) ReplaceEntry(ctx context.Context, entry *models.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *EntryRepository) DeleteEntry(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// SettingsRepository - мок repository.SettingsRepository.
type SettingsRepository struct {
	mock.Mock
}

func (m *SettingsRepository) GetSetting(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *SettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *SettingsRepository) EnsureSetting(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}
