package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/spares-console/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sessionFileName = "session.json"

	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var _ Repo = (*FileRepo)(nil)

// FileRepo keeps the persisted session in a single JSON file under the data folder.
// With a passphrase the values are sealed with NaCl secretbox under an Argon2id key.
type FileRepo struct {
	path       string
	passphrase []byte
	lock       sync.Mutex

	// derived key cache, valid for salt
	salt []byte
	key  *[keySize]byte
}

type fileEnvelope struct {
	Values map[string]string `json:"values,omitempty"`
	Salt   []byte            `json:"salt,omitempty"`
	Sealed []byte            `json:"sealed,omitempty"`
}

// NewFileRepo creates the data folder if needed. An empty passphrase stores values in the clear.
func NewFileRepo(folder, passphrase string) (*FileRepo, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("[FileRepo NewFileRepo] create folder %s: %w", folder, err)
	}
	r := &FileRepo{path: filepath.Join(folder, sessionFileName)}
	if passphrase != "" {
		r.passphrase = []byte(passphrase)
	}
	return r, nil
}

func (r *FileRepo) Path() string {
	return r.path
}

func (r *FileRepo) Get(_ context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	values, _, err := r.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (r *FileRepo) Set(_ context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	values, salt, err := r.load()
	if err != nil {
		return err
	}
	values[key] = value
	return r.save(values, salt)
}

func (r *FileRepo) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := validKey(k); err != nil {
			return err
		}
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	values, salt, err := r.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(values, k)
	}
	return r.save(values, salt)
}

func (r *FileRepo) load() (map[string]string, []byte, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return values, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("[FileRepo load] read %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil, nil
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("[FileRepo load] decode %s: %w", r.path, err)
	}

	if env.Sealed == nil {
		for k, v := range env.Values {
			values[k] = v
		}
		return values, env.Salt, nil
	}

	if r.passphrase == nil {
		return nil, nil, fmt.Errorf("[FileRepo load] %w: no storage key configured", errors.ErrSealedData)
	}
	plain, err := r.open(env.Sealed, env.Salt)
	if err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, nil, fmt.Errorf("[FileRepo load] decode sealed values: %w", err)
	}
	return values, env.Salt, nil
}

func (r *FileRepo) save(values map[string]string, salt []byte) error {
	var env fileEnvelope
	if r.passphrase == nil {
		env.Values = values
	} else {
		if len(salt) != saltSize {
			salt = make([]byte, saltSize)
			if _, err := io.ReadFull(rand.Reader, salt); err != nil {
				return fmt.Errorf("[FileRepo save] generate salt: %w", err)
			}
		}
		plain, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("[FileRepo save] encode values: %w", err)
		}
		sealed, err := r.seal(plain, salt)
		if err != nil {
			return err
		}
		env.Salt = salt
		env.Sealed = sealed
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileRepo save] encode envelope: %w", err)
	}
	return writeFileAtomic(r.path, data)
}

func (r *FileRepo) derive(salt []byte) *[keySize]byte {
	if r.key != nil && bytes.Equal(r.salt, salt) {
		return r.key
	}
	var key [keySize]byte
	copy(key[:], argon2.IDKey(r.passphrase, salt, argonTime, argonMemory, argonThreads, keySize))
	r.salt = append([]byte(nil), salt...)
	r.key = &key
	return r.key
}

func (r *FileRepo) seal(plain, salt []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("[FileRepo seal] generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, r.derive(salt)), nil
}

func (r *FileRepo) open(sealed, salt []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead || len(salt) != saltSize {
		return nil, fmt.Errorf("[FileRepo open] %w: truncated data", errors.ErrSealedData)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, r.derive(salt))
	if !ok {
		return nil, fmt.Errorf("[FileRepo open] %w: wrong storage key or corrupt file", errors.ErrSealedData)
	}
	return plain, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("[FileRepo save] create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo save] write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileRepo save] chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileRepo save] close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("[FileRepo save] replace %s: %w", path, err)
	}
	return nil
}
