package configdb

import (
	"bytes"
	"encoding/json"

	"github.com/go-errors/errors"
	"go.etcd.io/bbolt"
)

func (db *DB) setJSON(tx *bbolt.Tx, bucket []byte, bucketKey []byte, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Errorf("could not marshal %s: %v", bucketKey, err)
	}

	b, err := tx.CreateBucketIfNotExists(bucket)
	if err != nil {
		return err
	}

	return b.Put(bucketKey, payload)
}

// getJSON reports false when the key is missing or holds null.
func (db *DB) getJSON(bucket []byte, bucketKey []byte, v interface{}) (bool, error) {
	found := false

	err := db.View(func(tx *bbolt.Tx) error {
		// First fetch the bucket
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}

		payload := b.Get(bucketKey)
		if payload == nil || bytes.Equal(payload, []byte("null")) {
			return nil
		}

		err := json.Unmarshal(payload, v)
		if err != nil {
			return errors.Errorf("could not unmarshal %s: %v", bucketKey, err)
		}

		found = true

		return nil
	})

	if err != nil {
		return false, err
	}

	return found, nil
}
