package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/abrezinsky/quizroom/internal/errors"
	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/repository"
)

const settingBaseURL = "base_url"

// SettingsService handles settings-related business logic
type SettingsService struct {
	log  logger.Logger
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{log: log, repo: repo}
}

// GetBaseURL returns the application base URL
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	value, err := s.repo.GetSetting(ctx, settingBaseURL)
	if err != nil {
		if err == repository.ErrNotFound {
			return "", nil // No default - setting not yet configured
		}
		return "", err // Propagate database errors
	}
	return value, nil
}

// SetBaseURL saves the application base URL. It must be an absolute http(s) URL.
func (s *SettingsService) SetBaseURL(ctx context.Context, baseURL string) error {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Validationf("invalid base URL %q", baseURL)
	}
	if err := s.repo.SetSetting(ctx, settingBaseURL, baseURL); err != nil {
		return err
	}
	s.log.Info("Base URL updated", "base_url", baseURL)
	return nil
}

// EnsureBaseURL stores baseURL unless a base URL is already configured
func (s *SettingsService) EnsureBaseURL(ctx context.Context, baseURL string) error {
	current, err := s.GetBaseURL(ctx)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}
	return s.SetBaseURL(ctx, baseURL)
}

// GetSetting retrieves an arbitrary setting
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	return s.repo.GetSetting(ctx, key)
}

// SetSetting saves an arbitrary setting
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	return s.repo.SetSetting(ctx, key, value)
}

// Settings represents application settings for update operations
type Settings struct {
	BaseURL string
}

// AllSettings returns the configurable settings as a map
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]any, error) {
	baseURL, err := s.GetBaseURL(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{settingBaseURL: baseURL}, nil
}

// UpdateSettings updates the settings that were provided
func (s *SettingsService) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.BaseURL != "" {
		if err := s.SetBaseURL(ctx, settings.BaseURL); err != nil {
			return err
		}
	}
	return nil
}
