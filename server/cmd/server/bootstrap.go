package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/maynagashev/catalog/models"
	"github.com/maynagashev/catalog/server/internal/repository"
	"github.com/maynagashev/catalog/server/internal/services"
)

// bootstrapData задает общий пароль по умолчанию и создает первого администратора.
// Существующие значения не перезаписываются.
func bootstrapData(ctx context.Context, cfg *config, deps *dependencies) error {
	if cfg.DefaultGeneralPassword != "" {
		err := deps.settings.EnsureSetting(ctx, repository.SettingDefaultGeneralPassword, cfg.DefaultGeneralPassword)
		if err != nil {
			return fmt.Errorf("ошибка записи пароля по умолчанию: %w", err)
		}
	}

	if cfg.AdminEmail == "" {
		return nil
	}
	return ensureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, deps.identities, deps.gateway, deps.profiles)
}

// ensureAdmin создает учетную запись и профиль администратора, если их еще нет.
func ensureAdmin(
	ctx context.Context,
	email, password string,
	identities repository.IdentityRepository,
	admin services.IdentityAdmin,
	profiles repository.ProfileRepository,
) error {
	existing, err := identities.GetIdentityByEmail(ctx, email)
	switch {
	case err == nil:
		if _, err = profiles.GetProfileByID(ctx, existing.ID); err == nil {
			log.Printf("Администратор %s уже существует", email)
			return nil
		} else if !errors.Is(err, repository.ErrProfileNotFound) {
			return err
		}
		return profiles.CreateProfile(ctx, adminProfile(existing.ID, email))
	case !errors.Is(err, repository.ErrIdentityNotFound):
		return err
	}

	id, err := admin.CreateIdentity(ctx, email, password, true)
	if err != nil {
		return fmt.Errorf("ошибка создания учетной записи администратора: %w", err)
	}
	if err = profiles.CreateProfile(ctx, adminProfile(id, email)); err != nil {
		if delErr := admin.DeleteIdentity(ctx, id); delErr != nil {
			log.Printf("Не удалось откатить учетную запись администратора %s: %v", id, delErr)
		}
		return fmt.Errorf("ошибка создания профиля администратора: %w", err)
	}
	log.Printf("Создан администратор %s", email)
	return nil
}

func adminProfile(id, email string) *models.Profile {
	username, _, _ := strings.Cut(email, "@")
	return &models.Profile{ID: id, Username: username, Email: email, Role: models.RoleAdmin}
}
