package accounts

import "sync"

// Store persists the signed-in user under a key naming the device or browser.
// LoadUser returns nil, nil when nothing is stored.
type Store interface {
	LoadUser(key string) (*User, error)
	SaveUser(key string, u *User) error
	DeleteUser(key string) error
}

type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*User),
	}
}

func (s *MemoryStore) LoadUser(key string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[key].clone(), nil
}

func (s *MemoryStore) SaveUser(key string, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[key] = u.clone()
	return nil
}

func (s *MemoryStore) DeleteUser(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, key)
	return nil
}
