package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/settings"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type SettingsService struct {
	Repo *repo.GormRepo
}

// Load reads every stored row and resolves the typed settings.
func (s *SettingsService) Load(ctx context.Context) (settings.StoreSettings, error) {
	rows, err := s.Repo.ListSettings(ctx)
	if err != nil {
		return settings.StoreSettings{}, err
	}
	values := make(map[string]*string, len(rows))
	for _, r := range rows {
		values[r.Key] = r.Value
	}

	st, invalid := settings.Load(values)
	if len(invalid) > 0 {
		l := logging.FromContext(ctx).With("svc", "settings.load")
		for _, inv := range invalid {
			l.Warn("setting_invalid", "key", inv.Key, "value", inv.Value, "error", inv.Err)
		}
	}
	return st, nil
}

// LoadOrDefaults never fails; storage errors fall back to the defaults.
func (s *SettingsService) LoadOrDefaults(ctx context.Context) settings.StoreSettings {
	st, err := s.Load(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("settings_load_error", "error", err)
		return settings.Defaults()
	}
	return st
}

func (s *SettingsService) List(ctx context.Context) ([]models.Setting, error) {
	return s.Repo.ListSettings(ctx)
}

func (s *SettingsService) Upsert(ctx context.Context, key string, value *string) (*models.Setting, error) {
	if !settings.ValidKey(key) {
		return nil, fmt.Errorf("%w: invalid setting key %q", ErrValidation, key)
	}
	if value != nil {
		if err := settings.Validate(key, *value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return s.Repo.UpsertSetting(ctx, key, value)
}

func (s *SettingsService) Delete(ctx context.Context, key string) error {
	return notFound(s.Repo.DeleteSetting(ctx, key))
}
