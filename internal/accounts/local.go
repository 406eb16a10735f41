package accounts

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

const userObject = "user"

// LocalStore keeps the user in the platform's app data directory, the desktop
// counterpart of browser local storage. A nil manager stores nothing.
type LocalStore struct {
	manager *gdata.Manager
}

// OpenLocalStore opens the app data directory for appName.
func OpenLocalStore(appName string) (*LocalStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("opening local data: %w", err)
	}
	return &LocalStore{manager: m}, nil
}

func NewLocalStore(m *gdata.Manager) *LocalStore {
	return &LocalStore{manager: m}
}

func (s *LocalStore) LoadUser(key string) (*User, error) {
	if s.manager == nil || !s.manager.ObjectPropExists(userObject, key) {
		return nil, nil
	}
	data, err := s.manager.LoadObjectProp(userObject, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	var u User
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &u, nil
}

func (s *LocalStore) SaveUser(key string, u *User) error {
	if s.manager == nil {
		return nil
	}
	data, err := yaml.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.manager.SaveObjectProp(userObject, key, data); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *LocalStore) DeleteUser(key string) error {
	if s.manager == nil || !s.manager.ObjectPropExists(userObject, key) {
		return nil
	}
	if err := s.manager.DeleteObjectProp(userObject, key); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
