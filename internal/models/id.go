package models

import (
	"strconv"
	"sync"
	"time"
)

var (
	idMu   sync.Mutex
	lastID int64
)

// NewTimeID returns a unique millisecond-timestamp identifier. The
// contribution graph derives creation dates from these ids, so they must
// stay parseable as unix milliseconds; same-millisecond collisions are
// resolved by bumping forward.
func NewTimeID() string {
	idMu.Lock()
	defer idMu.Unlock()
	now := time.Now().UnixMilli()
	if now <= lastID {
		now = lastID + 1
	}
	lastID = now
	return strconv.FormatInt(now, 10)
}
