package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/config"
	"flower_shop/internal/models"
	"flower_shop/internal/repository"
)

var ErrOAuthNoEmail = errors.New("provider did not return an email")

// SetupProviders registers the OAuth providers that have credentials and
// returns their names.
func SetupProviders(cfg *config.Config, store sessions.Store) []string {
	gothic.Store = store

	var providers []goth.Provider
	if cfg.GoogleClientID != "" {
		providers = append(providers, google.New(
			cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.BaseURL+"/auth/google/callback", "email", "profile",
		))
	}
	if cfg.FacebookClientID != "" {
		providers = append(providers, facebook.New(
			cfg.FacebookClientID, cfg.FacebookClientSecret,
			cfg.BaseURL+"/auth/facebook/callback", "email",
		))
	}
	goth.UseProviders(providers...)

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	if len(names) > 0 {
		log.Info().Strs("providers", names).Msg("✅ OAuth providers enabled")
	}
	return names
}

// LoginOAuth finds the account matching the provider's email or creates
// one with a random password.
func (s *Service) LoginOAuth(ctx context.Context, gu goth.User) (*models.User, error) {
	email := strings.TrimSpace(gu.Email)
	if email == "" {
		return nil, ErrOAuthNoEmail
	}

	u, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	username, err := s.freeUsername(ctx, oauthUsername(gu))
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	u = &models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Provider: gu.Provider,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	log.Info().Uint("user_id", u.ID).Str("provider", gu.Provider).Msg("✅ OAuth user created")
	return u, nil
}

func oauthUsername(gu goth.User) string {
	for _, candidate := range []string{gu.NickName, gu.Name, strings.Split(gu.Email, "@")[0]} {
		candidate = strings.Join(strings.Fields(candidate), "")
		if len(candidate) >= 3 {
			if len(candidate) > 20 {
				candidate = candidate[:20]
			}
			return candidate
		}
	}
	return "user"
}

func (s *Service) freeUsername(ctx context.Context, base string) (string, error) {
	name := base
	for i := 0; i < 5; i++ {
		_, err := s.users.FindUserByUsername(ctx, name)
		if errors.Is(err, repository.ErrNotFound) {
			return name, nil
		}
		if err != nil {
			return "", err
		}
		suffix := uuid.NewString()[:6]
		if len(base) > 13 {
			base = base[:13]
		}
		name = base + "_" + suffix
	}
	return "", ErrUsernameTaken
}
