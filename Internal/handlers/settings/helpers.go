package settings

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"

	"github.com/fazecat/tokensentry/Internal/utils/config"
)

// Store persists raw (already sealed) setting values.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// SQLStore keeps settings in the postgres settings table.
type SQLStore struct {
	DB *sql.DB
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		"SELECT setting_value FROM settings WHERE setting_key = $1",
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO settings (setting_key, setting_value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
		 ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	return err
}

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// GetSetting reads and decrypts one setting. A missing key returns "".
func GetSetting(ctx context.Context, store Store, c *Cipher, key string) (string, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return "", err
	}
	return c.Decrypt(raw)
}

// SetSetting encrypts and stores one setting.
func SetSetting(ctx context.Context, store Store, c *Cipher, key, value string) error {
	sealed, err := c.Encrypt(value)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, sealed)
}

// LoadProviderKeys fills provider secrets from the store. Values already set
// through the environment or config file win.
func LoadProviderKeys(ctx context.Context, store Store, c *Cipher, cfg *config.Config) {
	targets := map[string]*string{
		KeyExplorerAPIKey: &cfg.Providers.Explorer.APIKey,
		KeyRPCURL:         &cfg.Chain.RPCURL,
		KeyAlpacaKey:      &cfg.Headlines.AlpacaKey,
		KeyAlpacaSecret:   &cfg.Headlines.AlpacaSecret,
	}
	for _, key := range knownKeys {
		target := targets[key]
		if *target != "" {
			continue
		}
		value, err := GetSetting(ctx, store, c, key)
		if err != nil {
			log.Printf("⚠️  [settings] could not load %s: %v", key, err)
			continue
		}
		if value != "" {
			*target = value
			log.Printf("Loaded %s from database", key)
		}
	}
}

// MaskSensitiveValue masks API keys for display
func MaskSensitiveValue(value string) string {
	if value == "" {
		return "Not set"
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:4] + "****...****"
}
