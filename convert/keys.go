package convert

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// KeyGenerator mints mark definition keys. Keys only need to be unique
// within one block; implementations must be safe for concurrent use.
type KeyGenerator interface {
	NextKey() string
}

// KeyFunc adapts a function to KeyGenerator.
type KeyFunc func() string

// NextKey calls f.
func (f KeyFunc) NextKey() string { return f() }

// CounterKeys yields prefix1, prefix2, ... and is deterministic.
type CounterKeys struct {
	prefix string
	n      atomic.Uint64
}

// NewCounterKeys returns a monotonic generator. An empty prefix means "k".
func NewCounterKeys(prefix string) *CounterKeys {
	if prefix == "" {
		prefix = "k"
	}
	return &CounterKeys{prefix: prefix}
}

// NextKey returns the next key in sequence.
func (c *CounterKeys) NextKey() string {
	return c.prefix + strconv.FormatUint(c.n.Add(1), 10)
}

// UUIDKeys yields the first 12 hex digits of a random UUID.
type UUIDKeys struct{}

// NextKey returns a fresh random key.
func (UUIDKeys) NextKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomKeys yields fixed length alphanumeric keys.
type RandomKeys struct {
	length int
}

// NewRandomKeys returns a generator of n character keys, 12 when n < 1.
func NewRandomKeys(n int) RandomKeys {
	if n < 1 {
		n = 12
	}
	return RandomKeys{length: n}
}

// NextKey returns a fresh random key.
func (r RandomKeys) NextKey() string {
	b := make([]byte, r.length)
	for i := range b {
		b[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return string(b)
}

// KeysByName maps a configuration name to a generator: "counter", "uuid" or
// "random". Unknown names yield nil.
func KeysByName(name string, length int) KeyGenerator {
	switch name {
	case "counter":
		return NewCounterKeys("")
	case "uuid":
		return UUIDKeys{}
	case "random":
		return NewRandomKeys(length)
	}
	return nil
}
