package configdb

import (
	"sort"
	"sync"

	"go.etcd.io/bbolt"
)

// Section is a named group of JSON values. Set only stages a value; Save
// writes every staged value in a single transaction and returns once it
// has been synced to disk.
type Section struct {
	db   *DB
	name []byte

	mu      sync.Mutex
	pending map[string]interface{}
}

func (s *Section) Name() string {
	return string(s.name)
}

func (s *Section) Set(key string, v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[key] = v
}

// Get decodes the stored value of key into v. Staged values that have not
// been saved yet are not visible.
func (s *Section) Get(key string, v interface{}) (bool, error) {
	return s.db.getJSON(s.name, []byte(key), v)
}

// Save commits all staged values. Nothing is written if any value fails to
// encode, and staged values are kept so Save can be retried.
func (s *Section) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	keys := make([]string, 0, len(s.pending))
	for key := range s.pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, key := range keys {
			err := s.db.setJSON(tx, s.name, []byte(key), s.pending[key])
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return err
	}

	s.pending = map[string]interface{}{}

	return nil
}
