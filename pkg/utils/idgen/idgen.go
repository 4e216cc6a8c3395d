package idgen

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// newUUID is replaced in tests to exercise the fallback path
var newUUID = uuid.NewRandom

// New returns a collision-resistant identifier. A random UUID is used when
// the system entropy source is available, otherwise the identifier is built
// from the current time and a random suffix, both in base36. A non-empty
// prefix is joined with an underscore.
func New(prefix string) string {
	id := random()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

func random() string {
	if u, err := newUUID(); err == nil {
		return u.String()
	}
	return fallback(time.Now())
}

func fallback(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + strconv.FormatUint(rand.Uint64(), 36)
}
