// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var defaultBucket = []byte("sessions")

// BoltStore keeps sessions in a bbolt database file. Expiry is stored with
// each record and checked on load; [BoltStore.Sweep] removes stale records.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time
}

// OpenBoltStore opens (or creates) the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt session store: %w", err)
	}
	s := &BoltStore{db: db, bucket: defaultBucket, now: time.Now}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}
	return s, nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *BoltStore) Load(_ context.Context, id string) (map[string]any, error) {
	var env envelope
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket).Get([]byte(id))
		if b == nil {
			return ErrNotFound
		}
		var err error
		env, err = decode(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	if env.Expires != 0 && s.now().UnixNano() > env.Expires {
		return nil, ErrNotFound
	}
	return env.Attrs, nil
}

// Save implements Store.
func (s *BoltStore) Save(_ context.Context, id string, attrs map[string]any, ttl time.Duration) error {
	b, err := encode(attrs, s.now().Add(ttl))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(id), b)
	})
}

// Delete implements Store.
func (s *BoltStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(id))
	})
}

// Sweep removes expired records and returns how many were removed.
func (s *BoltStore) Sweep() (int, error) {
	now := s.now().UnixNano()
	n := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(s.bucket)
		var stale [][]byte
		err := bkt.ForEach(func(k, v []byte) error {
			env, err := decode(v)
			if err != nil || (env.Expires != 0 && now > env.Expires) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := bkt.Delete(k); err != nil {
				return err
			}
		}
		n = len(stale)
		return nil
	})
	return n, err
}
