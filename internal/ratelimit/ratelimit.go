// Package ratelimit caps how many comments a user may create per window.
//
// Every successful comment leaves a marker keyed per user in badger with the
// window as TTL; the check counts the user's live markers. Expiry rides on
// badger's native TTL, there is no sweeping. The window is approximate:
// badger stores expiry in whole Unix seconds, so a marker may lapse up to a
// second early and windows below one second are unsupported.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type Limiter struct {
	db     *badger.DB
	window time.Duration
	limit  int
}

// OpenStore opens (or creates) the badger database backing the markers.
func OpenStore(path string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	return db, nil
}

func New(db *badger.DB, window time.Duration, limit int) *Limiter {
	return &Limiter{db: db, window: window, limit: limit}
}

// RecordComment stores a TTL marker for the created comment. Called only
// after the whole saga committed, so failed attempts never count.
func (l *Limiter) RecordComment(userID, postID, commentID int64, at time.Time) error {
	key := markerKey(userID, postID, commentID)
	val := []byte(at.UTC().Format(time.RFC3339Nano))

	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, val).WithTTL(l.window))
	})
	if err != nil {
		return fmt.Errorf("record comment marker: %w", err)
	}

	return nil
}

// TooMany reports whether the user already hit the per-window comment cap.
// The scan is bounded: keys are prefixed by user, so only that user's live
// markers are visited.
func (l *Limiter) TooMany(userID int64) (bool, error) {
	count := 0

	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = userPrefix(userID)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
			if count >= l.limit {
				break
			}
		}

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("count comment markers: %w", err)
	}

	return count >= l.limit, nil
}

func userPrefix(userID int64) []byte {
	return fmt.Appendf(nil, "rl/%d/", userID)
}

func markerKey(userID, postID, commentID int64) []byte {
	return fmt.Appendf(nil, "rl/%d/%d/%d", userID, postID, commentID)
}
