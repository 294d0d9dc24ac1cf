package auth

import (
	"os"
	"time"
)

const (
	EnvRequestKey  = "SEBACKUP_REQUEST_KEY"
	EnvAccessToken = "SEBACKUP_ACCESS_TOKEN"
)

// EnvironmentStore is a read-only store exposing SEBACKUP_REQUEST_KEY and
// SEBACKUP_ACCESS_TOKEN as the default profile
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment credentials for the default profile
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	if name != "" && name != DefaultProfile {
		return nil, ErrCredentialsNotFound
	}

	key := os.Getenv(EnvRequestKey)
	token := os.Getenv(EnvAccessToken)
	if key == "" && token == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:         DefaultProfile,
		RequestKey:   key,
		AccessToken:  token,
		LastModified: time.Now(),
	}, nil
}

// List returns the default profile if the environment sets it
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
