// Package storage persists the session state that outlives a process: the bearer token
// and the serialized user. Every backend stores plain strings under the two keys below.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/spares-console/internal/errors"
	"github.com/jrsteele09/spares-console/users"
	"github.com/rs/zerolog/log"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Repo is a small string key/value store.
type Repo interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

func validKey(key string) error {
	switch key {
	case KeyToken, KeyUser:
		return nil
	}
	return fmt.Errorf("%w: %q", errors.ErrInvalidStorageKey, key)
}

// Token reads the persisted bearer token. A missing token is "" without an error.
func Token(ctx context.Context, repo Repo) (string, error) {
	token, _, err := repo.Get(ctx, KeyToken)
	if err != nil {
		return "", fmt.Errorf("[storage Token] %w", err)
	}
	return token, nil
}

func SaveToken(ctx context.Context, repo Repo, token string) error {
	if err := repo.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("[storage SaveToken] %w", err)
	}
	return nil
}

// User reads the persisted user. A missing user, or one that no longer decodes, is nil.
func User(ctx context.Context, repo Repo) (*users.User, error) {
	raw, ok, err := repo.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("[storage User] %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Err(err).Msg("[storage User] discarding persisted user that does not decode")
		return nil, nil
	}
	return &u, nil
}

// SaveUser persists u, or removes the persisted user when u is nil.
func SaveUser(ctx context.Context, repo Repo, u *users.User) error {
	if u == nil {
		if err := repo.Delete(ctx, KeyUser); err != nil {
			return fmt.Errorf("[storage SaveUser] %w", err)
		}
		return nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("[storage SaveUser] marshal user: %w", err)
	}
	if err := repo.Set(ctx, KeyUser, string(data)); err != nil {
		return fmt.Errorf("[storage SaveUser] %w", err)
	}
	return nil
}

// Clear removes both the token and the user.
func Clear(ctx context.Context, repo Repo) error {
	if err := repo.Delete(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("[storage Clear] %w", err)
	}
	return nil
}
