package idgen

import "github.com/google/uuid"

// SetUUIDSourceForTest swaps the UUID source and returns a restore function
func SetUUIDSourceForTest(fn func() (uuid.UUID, error)) func() {
	orig := newUUID
	newUUID = fn
	return func() { newUUID = orig }
}
