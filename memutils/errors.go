package memutils

import "github.com/pkg/errors"

var (
	// ErrPowerOfTwo is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
	ErrPowerOfTwo error = errors.New("number must be a power of two")
	// ErrStaleRelocation is returned when a relocation is requested through a record handle that
	// has already been forwarded. Relocation must only be requested through a freshly-resolved handle.
	ErrStaleRelocation error = errors.New("relocation requested through a stale record handle")
	// ErrOutOfMemory is returned when a record store cannot provide a new record
	ErrOutOfMemory error = errors.New("record store is out of memory")
	// ErrRecordNotLive is returned when an operation targets a record that has already been freed
	ErrRecordNotLive error = errors.New("record is not live")
	// ErrBoxDestroyed is the panic value used when a destroyed box is accessed
	ErrBoxDestroyed error = errors.New("box has already been destroyed")
	// ErrUnknownMovable is returned when a relocation pass is asked about a movable it has never registered
	ErrUnknownMovable error = errors.New("movable is not registered")
	// ErrDuplicateMovable is returned when a movable is registered with a relocation pass more than once
	ErrDuplicateMovable error = errors.New("movable is already registered")
)
