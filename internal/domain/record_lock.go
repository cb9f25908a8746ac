package domain

import "time"

// RecordLock is an advisory edit lock on a document.
type RecordLock struct {
	Resource  string
	ID        string
	Owner     string
	ExpiresAt time.Time
}

// Key returns the storage key of the lock.
func (l RecordLock) Key() string {
	return LockKey(l.Resource, l.ID)
}

// LockKey builds the storage key for a resource lock.
func LockKey(resource, id string) string {
	return resource + ":" + id
}
