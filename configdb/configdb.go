// Package configdb persistently stores device configuration in a bbolt
// database. Values are grouped into named sections and written as JSON.
package configdb

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-errors/errors"
	"go.etcd.io/bbolt"
)

const (
	dbName      = "netconfig.db"
	openTimeout = 5 * time.Second
)

type DB struct {
	*bbolt.DB
}

// Open creates or opens the database inside dataDir.
func Open(dataDir string) (*DB, error) {
	err := os.MkdirAll(dataDir, 0700)
	if err != nil {
		return nil, errors.Errorf("could not create data dir %v: %v", dataDir, err)
	}

	path := filepath.Join(dataDir, dbName)

	bdb, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Errorf("could not open %v: %v", path, err)
	}

	return &DB{DB: bdb}, nil
}

// Section returns a handle on the named group of values. Writes through the
// handle are staged until Save.
func (db *DB) Section(name string) *Section {
	return &Section{
		db:      db,
		name:    []byte(name),
		pending: map[string]interface{}{},
	}
}
