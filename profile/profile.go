// Package profile persists the credentials of the last network the device
// associated with, so it can rejoin that network on the next boot.
package profile

import (
	"fmt"

	"github.com/go-errors/errors"
)

const (
	SectionName = "network"
	Key         = "sta_if"
)

// Profile is the single saved station configuration. A nil Password
// denotes an open network.
type Profile struct {
	Ssid     string  `json:"ssid"`
	Password *string `json:"password"`
}

func (p *Profile) String() string {
	if p.Password == nil {
		return fmt.Sprintf("%v (open)", p.Ssid)
	}

	return fmt.Sprintf("%v (secured)", p.Ssid)
}

// Section is the slice of the configuration store the persister writes to.
type Section interface {
	Set(key string, v interface{})
	Get(key string, v interface{}) (bool, error)
	// Save returns only after all staged values are durable.
	Save() error
}

// PersistError means the association succeeded but its credentials could
// not be stored.
type PersistError struct {
	Ssid string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("connected to %v but could not save configuration: %v", e.Ssid, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
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

type Persister struct {
	section Section
	log     Logger
}

type PersisterConfig struct {
	Section Section
	Logger  Logger
}

func NewPersister(config *PersisterConfig) *Persister {
	persister := &Persister{
		section: config.Section,
	}

	if config.Logger != nil {
		persister.log = config.Logger
	} else {
		persister.log = noopLogger{}
	}

	return persister
}

// Persist overwrites the saved profile with ssid and password. Persisting
// the same credentials twice leaves the store unchanged.
func (p *Persister) Persist(ssid string, password *string) error {
	profile := &Profile{
		Ssid: ssid,
	}

	if password != nil {
		pw := *password
		profile.Password = &pw
	}

	p.section.Set(Key, profile)

	err := p.section.Save()
	if err != nil {
		p.log.Errorf("Could not save profile %v: %v", profile, err)
		return &PersistError{Ssid: ssid, Err: err}
	}

	p.log.Infof("Saved profile %v", profile)

	return nil
}

// Load returns the saved profile, or nil if none was saved yet.
func (p *Persister) Load() (*Profile, error) {
	profile := &Profile{}

	found, err := p.section.Get(Key, profile)
	if err != nil {
		return nil, errors.Errorf("could not load profile: %v", err)
	}

	if !found || profile.Ssid == "" {
		return nil, nil
	}

	return profile, nil
}
