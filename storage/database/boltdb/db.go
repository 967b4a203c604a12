// Package boltdb stores the roster in an embedded bbolt file.
package boltdb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/storage/database/snapshot"
)

var (
	activitiesBucket  = []byte("activities")
	assignmentsBucket = []byte("assignments")
	feedbackBucket    = []byte("feedback")

	buckets = [][]byte{activitiesBucket, assignmentsBucket, feedbackBucket}
)

type DB struct {
	db *bbolt.DB
}

var _ snapshot.Backend = (*DB)(nil)

// Open opens (or creates) the bbolt file at path and its buckets.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating parent dir")
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt file")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating buckets")
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func NewRosterRepository(d *DB) activity.Repository {
	return snapshot.NewRosterRepository(d)
}

func (d *DB) View(_ context.Context, fn func(r *activity.Roster) error) error {
	return d.db.View(func(tx *bbolt.Tx) error {
		r, err := load(tx)
		if err != nil {
			return err
		}
		return fn(r)
	})
}

// Update runs fn and writes the Roster back inside a single write transaction.
func (d *DB) Update(_ context.Context, fn func(r *activity.Roster) error) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		r, err := load(tx)
		if err != nil {
			return err
		}
		if err = fn(r); err != nil {
			return err
		}
		return store(tx, r)
	})
}

// corrupt marks a decoding failure of the stored roster as fatal.
func corrupt(err error) error {
	return core.NewShutdownError("corrupt roster store: " + err.Error())
}

func load(tx *bbolt.Tx) (*activity.Roster, error) {
	r := activity.NewRoster()

	err := tx.Bucket(activitiesBucket).ForEach(func(k, v []byte) error {
		act := new(activity.Activity)
		if err := json.Unmarshal(v, act); err != nil {
			return errors.Wrapf(corrupt(err), "decoding activity %q", k)
		}
		r.Activities[string(k)] = act
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = tx.Bucket(assignmentsBucket).ForEach(func(k, v []byte) error {
		var asg activity.Assignment
		if err := json.Unmarshal(v, &asg); err != nil {
			return errors.Wrapf(corrupt(err), "decoding assignment %q", k)
		}
		r.Assignments[string(k)] = asg
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = tx.Bucket(feedbackBucket).ForEach(func(k, v []byte) error {
		var fbs []activity.Feedback
		if err := json.Unmarshal(v, &fbs); err != nil {
			return errors.Wrapf(corrupt(err), "decoding feedback of %q", k)
		}
		r.Feedback[string(k)] = fbs
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.Init()
	return r, nil
}

func store(tx *bbolt.Tx, r *activity.Roster) error {
	acts := make(map[string]interface{}, len(r.Activities))
	for name, act := range r.Activities {
		acts[name] = act
	}
	if err := replaceBucket(tx.Bucket(activitiesBucket), acts); err != nil {
		return errors.Wrap(err, "storing activities")
	}

	asgs := make(map[string]interface{}, len(r.Assignments))
	for name, asg := range r.Assignments {
		asgs[name] = asg
	}
	if err := replaceBucket(tx.Bucket(assignmentsBucket), asgs); err != nil {
		return errors.Wrap(err, "storing assignments")
	}

	fbs := make(map[string]interface{}, len(r.Feedback))
	for email, list := range r.Feedback {
		fbs[email] = list
	}
	return errors.Wrap(replaceBucket(tx.Bucket(feedbackBucket), fbs), "storing feedback")
}

// replaceBucket makes b hold exactly the JSON encoding of values.
func replaceBucket(b *bbolt.Bucket, values map[string]interface{}) error {
	var stale [][]byte
	err := b.ForEach(func(k, _ []byte) error {
		if _, ok := values[string(k)]; !ok {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range stale {
		if err = b.Delete(k); err != nil {
			return err
		}
	}

	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if err = b.Put([]byte(k), data); err != nil {
			return err
		}
	}
	return nil
}
