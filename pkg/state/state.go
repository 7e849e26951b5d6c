package state

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/quicklaunch/quicklaunch/pkg/qlerr"
	"github.com/quicklaunch/quicklaunch/pkg/types"
)

var bucketScheduleState = []byte("schedule_state")

// Store is the durable ScheduleState store, one bbolt bucket keyed by
// app id.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt database file under dataDir.
func Open(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "quicklaunch.db")
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, qlerr.Internal(fmt.Errorf("open state db %s: %w", path, err))
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketScheduleState)
		return err
	})
	if err != nil {
		db.Close()
		return nil, qlerr.Internal(fmt.Errorf("create schedule_state bucket: %w", err))
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put persists the schedule state for an app, overwriting any prior
// record.
func (s *Store) Put(st types.ScheduleState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return qlerr.Internal(fmt.Errorf("marshal schedule state: %w", err))
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketScheduleState).Put([]byte(st.AppID), data)
	})
}

// Get returns the last persisted schedule state for an app, if any.
func (s *Store) Get(appID string) (*types.ScheduleState, bool, error) {
	var st types.ScheduleState
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketScheduleState).Get([]byte(appID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &st)
	})
	if err != nil {
		return nil, false, qlerr.Internal(fmt.Errorf("read schedule state for %s: %w", appID, err))
	}
	if !found {
		return nil, false, nil
	}
	return &st, true, nil
}

// All returns every persisted schedule state, used at startup to
// evaluate every app's missed-run status in one pass.
func (s *Store) All() (map[string]types.ScheduleState, error) {
	out := map[string]types.ScheduleState{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketScheduleState).ForEach(func(k, v []byte) error {
			var st types.ScheduleState
			if err := json.Unmarshal(v, &st); err != nil {
				return err
			}
			out[string(k)] = st
			return nil
		})
	})
	if err != nil {
		return nil, qlerr.Internal(fmt.Errorf("scan schedule_state bucket: %w", err))
	}
	return out, nil
}

// Delete removes the persisted state for an app, used when an app is
// removed from the registry.
func (s *Store) Delete(appID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketScheduleState).Delete([]byte(appID))
	})
}
