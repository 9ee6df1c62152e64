package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/router-for-me/codex-switcher/internal/misc"
	"github.com/router-for-me/codex-switcher/internal/util"
)

const (
	// accountsFileName is the store file inside the auth directory.
	accountsFileName = "accounts.json"
	// accountsSchemaVersion is the only schema version this store reads and writes.
	accountsSchemaVersion = 2
)

// accountsFile is the on-disk layout of accounts.json.
type accountsFile struct {
	Version         int        `json:"version"`
	Accounts        []*Account `json:"accounts"`
	ActiveAccountID *string    `json:"active_account_id"`
}

// FileAccountStore persists accounts to a single JSON file in the auth directory.
type FileAccountStore struct {
	mu      sync.Mutex
	dirLock sync.RWMutex
	baseDir string
}

// NewFileAccountStore creates a store rooted at dir. A leading ~ is expanded.
func NewFileAccountStore(dir string) *FileAccountStore {
	s := &FileAccountStore{}
	s.SetBaseDir(dir)
	return s
}

// SetBaseDir updates the directory holding accounts.json.
func (s *FileAccountStore) SetBaseDir(dir string) {
	resolved, err := util.ResolveAuthDir(dir)
	if err != nil {
		resolved = strings.TrimSpace(dir)
	}
	s.dirLock.Lock()
	s.baseDir = resolved
	s.dirLock.Unlock()
}

// Path returns the location of accounts.json.
func (s *FileAccountStore) Path() string {
	s.dirLock.RLock()
	defer s.dirLock.RUnlock()
	if s.baseDir == "" {
		return ""
	}
	return filepath.Join(s.baseDir, accountsFileName)
}

// Add stores a new account. The first account becomes the active one.
func (s *FileAccountStore) Add(ctx context.Context, account *Account) (*Account, error) {
	if account == nil {
		return nil, fmt.Errorf("account filestore: account is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, existing := range store.Accounts {
		if existing.Name == account.Name {
			return nil, &DuplicateAccountError{Name: account.Name}
		}
	}

	stored := *account
	store.Accounts = append(store.Accounts, &stored)
	if len(store.Accounts) == 1 {
		store.ActiveAccountID = &stored.ID
	}

	misc.LogSavingCredentials(s.Path())
	if err = s.save(store); err != nil {
		return nil, err
	}
	result := stored
	return &result, nil
}

// Get returns the account with id.
func (s *FileAccountStore) Get(ctx context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.load()
	if err != nil {
		return nil, err
	}
	if account := findByID(store, id); account != nil {
		result := *account
		return &result, nil
	}
	return nil, &AccountNotFoundError{ID: id}
}

// FindByName returns the account called name, or nil when there is none.
func (s *FileAccountStore) FindByName(ctx context.Context, name string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, account := range store.Accounts {
		if account.Name == name {
			result := *account
			return &result, nil
		}
	}
	return nil, nil
}

// SetActive marks id as the active account.
func (s *FileAccountStore) SetActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.load()
	if err != nil {
		return err
	}
	if findByID(store, id) == nil {
		return &AccountNotFoundError{ID: id}
	}
	activeID := id
	store.ActiveAccountID = &activeID
	return s.save(store)
}

// Touch sets last_used_at of id to now. Unknown ids are ignored.
func (s *FileAccountStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.load()
	if err != nil {
		return err
	}
	account := findByID(store, id)
	if account == nil {
		return nil
	}
	now := time.Now().UTC()
	account.LastUsedAt = &now
	return s.save(store)
}

// List returns every stored account and the active account id.
func (s *FileAccountStore) List(ctx context.Context) ([]*Account, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.load()
	if err != nil {
		return nil, "", err
	}
	activeID := ""
	if store.ActiveAccountID != nil {
		activeID = *store.ActiveAccountID
	}
	return store.Accounts, activeID, nil
}

func findByID(store *accountsFile, id string) *Account {
	for _, account := range store.Accounts {
		if account.ID == id {
			return account
		}
	}
	return nil
}

func (s *FileAccountStore) load() (*accountsFile, error) {
	path := s.Path()
	if path == "" {
		return nil, fmt.Errorf("account filestore: directory not configured")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &accountsFile{Version: accountsSchemaVersion, Accounts: []*Account{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account filestore: read %s failed: %w", path, err)
	}

	var store accountsFile
	if err = json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("account filestore: parse %s failed: %w", path, err)
	}
	if store.Version != accountsSchemaVersion {
		return nil, fmt.Errorf("account filestore: unsupported schema version %d in %s", store.Version, path)
	}
	if store.Accounts == nil {
		store.Accounts = []*Account{}
	}
	return &store, nil
}

// save writes the store through a temporary file so a crash never leaves a torn accounts.json.
func (s *FileAccountStore) save(store *accountsFile) error {
	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("account filestore: create dir failed: %w", err)
	}

	raw, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("account filestore: marshal failed: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".accounts-*.json")
	if err != nil {
		return fmt.Errorf("account filestore: create temp file failed: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("account filestore: chmod failed: %w", err)
	}
	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("account filestore: write failed: %w", err)
	}
	if err = tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("account filestore: close failed: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("account filestore: rename failed: %w", err)
	}
	return nil
}
