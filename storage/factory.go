package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jrsteele09/spares-console/internal/errors"
	"github.com/redis/go-redis/v9"
)

const maxSessionIDLength = 64

// Factory opens the persisted session of one console session, a browser or the CLI.
type Factory func(ctx context.Context, sessionID string) (Repo, error)

// ValidSessionID accepts ids made of letters, digits, '-' and '_', as they become file
// and key names.
func ValidSessionID(id string) error {
	if id == "" || len(id) > maxSessionIDLength {
		return fmt.Errorf("%w: session id %q", errors.ErrInvalidStorageKey, id)
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("%w: session id %q", errors.ErrInvalidStorageKey, id)
		}
	}
	return nil
}

// FileFactory keeps each session in <folder>/sessions/<id>/session.json.
func FileFactory(folder, passphrase string) Factory {
	return func(_ context.Context, sessionID string) (Repo, error) {
		if err := ValidSessionID(sessionID); err != nil {
			return nil, fmt.Errorf("[storage FileFactory] %w", err)
		}
		return NewFileRepo(filepath.Join(folder, "sessions", sessionID), passphrase)
	}
}

// RedisFactory keeps each session under <prefix>:session:<id>:.
func RedisFactory(client redis.UniversalClient, prefix string) Factory {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = strings.TrimSuffix(defaultRedisPrefix, ":session:")
	}
	return func(_ context.Context, sessionID string) (Repo, error) {
		if err := ValidSessionID(sessionID); err != nil {
			return nil, fmt.Errorf("[storage RedisFactory] %w", err)
		}
		return NewRedisRepo(client, prefix+":session:"+sessionID+":"), nil
	}
}
