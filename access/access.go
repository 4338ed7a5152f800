// Package access keeps the password that guards the device's remote
// interfaces. Only a bcrypt hash of it is stored.
package access

import (
	"sync"

	"github.com/go-errors/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	SectionName = "access"
	Key         = "api"
)

type credential struct {
	Hash string `json:"hash"`
}

// Section is the slice of the configuration store the password lives in.
type Section interface {
	Set(key string, v interface{})
	Get(key string, v interface{}) (bool, error)
	Save() error
}

type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Warnf(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

type StoreConfig struct {
	Section Section
	// Cost is the bcrypt cost, bcrypt.DefaultCost when zero.
	Cost   int
	Logger Logger
}

type Store struct {
	mu      sync.Mutex
	section Section
	cost    int
	log     Logger
}

func NewStore(config *StoreConfig) *Store {
	store := &Store{
		section: config.Section,
		cost:    config.Cost,
	}

	if store.cost == 0 {
		store.cost = bcrypt.DefaultCost
	}

	if config.Logger != nil {
		store.log = config.Logger
	} else {
		store.log = noopLogger{}
	}

	return store
}

// SetPassword replaces the stored password. It returns once the new hash is
// durable.
func (s *Store) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return errors.Errorf("could not hash password: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.section.Set(Key, &credential{Hash: string(hash)})

	err = s.section.Save()
	if err != nil {
		return errors.Errorf("could not save password: %v", err)
	}

	s.log.Infof("Saved new API password")

	return nil
}

func (s *Store) load() (*credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &credential{}

	found, err := s.section.Get(Key, c)
	if err != nil {
		return nil, errors.Errorf("could not load password: %v", err)
	}

	if !found || c.Hash == "" {
		return nil, nil
	}

	return c, nil
}

// Enabled reports whether a password has been set.
func (s *Store) Enabled() (bool, error) {
	c, err := s.load()
	if err != nil {
		return false, err
	}

	return c != nil, nil
}

// Check reports whether password matches the stored one. Without a stored
// password nothing matches.
func (s *Store) Check(password string) (bool, error) {
	c, err := s.load()
	if err != nil {
		return false, err
	}

	if c == nil {
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, errors.Errorf("could not compare password: %v", err)
	}

	return true, nil
}
