package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/oauth2"
)

var (
	ErrStoreClosed  = errors.New("token store is closed")
	ErrMissingLabel = errors.New("backend label is required")
)

var tokensBucket = []byte("tokens")

// TokenStore persists OAuth tokens per backend label in a bbolt file.
type TokenStore struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

func OpenTokenStore(path string) (*TokenStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("token store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o700); err != nil {
		return nil, fmt.Errorf("ensure token store dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(tokensBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init token store: %w", err)
	}
	return &TokenStore{db: db, path: trimmed}, nil
}

func (s *TokenStore) Path() string {
	return s.path
}

func (s *TokenStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Get returns the stored token for label. The boolean is false when no
// token was ever saved.
func (s *TokenStore) Get(label string) (*oauth2.Token, bool, error) {
	key, err := storeKey(label)
	if err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}

	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		if value := tx.Bucket(tokensBucket).Get(key); value != nil {
			raw = append([]byte(nil), value...)
		}
		return nil
	}); err != nil {
		return nil, false, err
	}
	if raw == nil {
		return nil, false, nil
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, false, fmt.Errorf("decode token for %s: %w", label, err)
	}
	return &token, true, nil
}

func (s *TokenStore) Put(label string, token *oauth2.Token) error {
	key, err := storeKey(label)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("token for %s is nil", label)
	}
	encoded, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token for %s: %w", label, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tokensBucket).Put(key, encoded)
	})
}

func (s *TokenStore) Delete(label string) error {
	key, err := storeKey(label)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(tokensBucket).Delete(key)
	})
}

func storeKey(label string) ([]byte, error) {
	trimmed := strings.ToLower(strings.TrimSpace(label))
	if trimmed == "" {
		return nil, ErrMissingLabel
	}
	return []byte(trimmed), nil
}
