// Package singleton holds one lazily built instance per concrete Go type for
// the lifetime of the process.
//
//	type Clock struct{ singleton.Base }
//
//	func newClock() *Clock { return &Clock{} }
//
//	func Shared() *Clock { return singleton.Get(newClock) }
//
// Keep the constructor unexported so the only way to reach a *Clock from
// outside the package is through Shared.
package singleton

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrIllegalState is matched by every IllegalStateError.
var ErrIllegalState = errors.New("singleton: illegal state")

// IllegalStateError is returned when a singleton is restored from a
// serialized form.
type IllegalStateError struct {
	Op string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("singleton: cannot %s a singleton", e.Op)
}

func (e *IllegalStateError) Is(target error) bool { return target == ErrIllegalState }

// ── Slots ─────────────────────────────────────────────────────────────────────

type slot struct {
	once     sync.Once
	instance any
}

var (
	mu    sync.Mutex
	slots = make(map[reflect.Type]*slot)
)

// Get returns the process-wide *T, calling construct on first access only.
//
// Slots are keyed by T itself: a type embedding another singleton type gets
// its own instance.
func Get[T any](construct func() *T) *T {
	key := reflect.TypeFor[T]()

	mu.Lock()
	s, ok := slots[key]
	if !ok {
		s = &slot{}
		slots[key] = s
	}
	mu.Unlock()

	s.once.Do(func() { s.instance = construct() })
	return s.instance.(*T)
}

// ── Base ──────────────────────────────────────────────────────────────────────

// noCopy trips go vet's copylocks check when a value holding it is copied.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Base is embedded by singleton types. It refuses every standard decoding
// path so an instance cannot be rebuilt from bytes, and must not be copied.
type Base struct {
	_ noCopy
}

// UnmarshalJSON implements json.Unmarshaler.
func (*Base) UnmarshalJSON([]byte) error { return &IllegalStateError{Op: "unmarshal"} }

// UnmarshalText implements encoding.TextUnmarshaler.
func (*Base) UnmarshalText([]byte) error { return &IllegalStateError{Op: "unmarshal"} }

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (*Base) UnmarshalBinary([]byte) error { return &IllegalStateError{Op: "unmarshal"} }

// GobDecode implements gob.GobDecoder.
func (*Base) GobDecode([]byte) error { return &IllegalStateError{Op: "decode"} }
