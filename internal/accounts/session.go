package accounts

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Rand picks avatars and username suggestions.
type Rand interface {
	IntN(n int) int
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,}$`)

var (
	suggestionPrefixes = []string{"cosmic_", "lunar_", "star_", "astral_"}
	suggestionSuffixes = []string{"_player", "_gamer", "_cosmic", "_explorer"}
)

// Session is the signed-in state of one device or browser. Mutations stay in
// memory until Save is called.
type Session struct {
	mu        sync.Mutex
	store     Store
	key       string
	user      *User
	suggested []string
	rng       Rand
	now       func() time.Time
}

func NewSession(store Store, key string, rng Rand) *Session {
	return &Session{
		store: store,
		key:   key,
		rng:   rng,
		now:   time.Now,
	}
}

// Load restores the signed-in user from the store.
func (s *Session) Load() error {
	u, err := s.store.LoadUser(s.key)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return nil
}

// Save writes the signed-in user to the store, or removes it when signed out.
func (s *Session) Save() error {
	s.mu.Lock()
	u := s.user.clone()
	s.mu.Unlock()

	if u == nil {
		if err := s.store.DeleteUser(s.key); err != nil {
			return fmt.Errorf("clearing user: %w", err)
		}
		return nil
	}
	if err := s.store.SaveUser(s.key, u); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.clone()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

func (s *Session) SignIn(email, password string) error {
	if !strings.EqualFold(strings.TrimSpace(email), MockEmail) || password != MockPassword {
		return ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = mockUser(s.now())
	return nil
}

func (s *Session) SignUp(email, username, password string) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return ErrInvalidEmail
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	if len(password) < 8 {
		return ErrWeakPassword
	}
	if strings.EqualFold(email, MockEmail) {
		return ErrEmailInUse
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &User{
		ID:         "user-" + uuid.NewString(),
		Username:   username,
		Email:      email,
		Avatar:     Avatars[s.rng.IntN(len(Avatars))],
		CreatedAt:  s.now(),
		HighScores: map[string]int{},
	}
	return nil
}

func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

// CheckUsername reports whether name is free. When it is taken, three
// alternatives are returned and remembered as the current suggestions.
func (s *Session) CheckUsername(name string) (bool, []string) {
	if !strings.EqualFold(name, MockUsername) {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggested = []string{
		fmt.Sprintf("%s%d", name, s.rng.IntN(1000)),
		suggestionPrefixes[s.rng.IntN(len(suggestionPrefixes))] + name,
		name + suggestionSuffixes[s.rng.IntN(len(suggestionSuffixes))],
	}
	return false, append([]string(nil), s.suggested...)
}

func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.suggested...)
}

func (s *Session) UpdateProfile(p ProfileUpdate) error {
	if p.Username != nil && !usernamePattern.MatchString(*p.Username) {
		return ErrInvalidUsername
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ErrNotSignedIn
	}
	if p.Username != nil {
		s.user.Username = *p.Username
	}
	if p.Bio != nil {
		s.user.Bio = *p.Bio
	}
	if p.Avatar != nil {
		s.user.Avatar = *p.Avatar
	}
	return nil
}

// RecordScore keeps the best score per game. It reports whether score is a
// new high score; signed-out sessions record nothing.
func (s *Session) RecordScore(gameID string, score int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	if s.user.HighScores == nil {
		s.user.HighScores = map[string]int{}
	}
	if best, ok := s.user.HighScores[gameID]; ok && best >= score {
		return false
	}
	s.user.HighScores[gameID] = score
	return true
}
