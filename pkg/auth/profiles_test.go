package auth

import (
	"sync"
)

// memoryStore is an in-memory CredentialStore keyed by profile name.
// failWith, when set, is returned by every write and by List.
type memoryStore struct {
	mu       sync.Mutex
	profiles map[string]Account
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{profiles: make(map[string]Account)}
}

func (s *memoryStore) Store(account *Account) error {
	if s.failWith != nil {
		return s.failWith
	}
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[account.Name] = *account
	return nil
}

func (s *memoryStore) Retrieve(name string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.profiles[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (s *memoryStore) List() ([]*Account, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]*Account, 0, len(s.profiles))
	for _, account := range s.profiles {
		acc := account
		accounts = append(accounts, &acc)
	}
	return accounts, nil
}

func (s *memoryStore) Delete(name string) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(s.profiles, name)
	return nil
}

func (s *memoryStore) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.profiles[name]
	return ok
}

func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}
