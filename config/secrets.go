package config

import (
	"context"
	"fmt"
	"os"
)

// SecretStore resolves named secrets at runtime. Keeping this behind an
// interface lets deployments swap the environment-backed store for a
// vault-backed one without touching call sites.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, fallback string) string
}

// EnvironmentSecretStore reads secrets from process environment variables.
type EnvironmentSecretStore struct{}

// NewEnvironmentSecretStore creates a secret store backed by the
// environment.
func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

// Get returns the value of the named environment variable, or an error if
// it is unset.
func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s not found in environment", key)
	}
	return value, nil
}

// GetWithDefault returns the value of the named environment variable, or
// the fallback if it is unset or empty.
func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, fallback string) string {
	value, err := s.Get(ctx, key)
	if err != nil || value == "" {
		return fallback
	}
	return value
}

var _ SecretStore = (*EnvironmentSecretStore)(nil)

// LoadSecretsFromEnv fills sensitive fields that config files leave empty.
// Called in production so DSNs and passwords never have to live on disk.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	store := NewEnvironmentSecretStore()

	if c.Storage.Adapter == "sql" && c.Storage.SQL.DSN == "" {
		dsn, err := store.Get(ctx, "PROGRESSKIT_STORAGE_SQL_DSN")
		if err != nil {
			return fmt.Errorf("sql storage selected but no DSN available: %w", err)
		}
		c.Storage.SQL.DSN = dsn
	}
	if c.Storage.Adapter == "redis" && c.Storage.Redis.Password == "" {
		c.Storage.Redis.Password = store.GetWithDefault(ctx, "PROGRESSKIT_STORAGE_REDIS_PASSWORD", "")
	}
	return nil
}
