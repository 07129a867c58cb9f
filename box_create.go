package movebox

import (
	"fmt"

	"github.com/vkngwrapper/movebox/record"
	"golang.org/x/exp/slog"
)

// CreateOptions contains optional settings when creating a Box
type CreateOptions struct {
	// Name is a diagnostic name for the Box, used in logs and detailed maps
	Name string
	// Logger is used to trace operations on the Box. If nil, the logger of the Box's
	// arena is used.
	Logger *slog.Logger
}

// New wraps value in a Box backed by a private record.Arena with default options.
//
// New panics if the first record cannot be allocated.
func New[T any](value T) *Box[T] {
	arena, err := record.NewArena[T](nil, record.ArenaOptions{})
	if err != nil {
		panic(fmt.Sprintf("unexpected error when creating a default arena: %+v", err))
	}

	return NewIn(arena, value, CreateOptions{})
}

// NewIn wraps value in a Box whose records are allocated from arena. Several boxes may share an
// arena, but each Box remains the sole owner of its own records.
//
// arena - The record store the Box's records will be allocated from
//
// value - The initial payload
//
// options - Optional parameters: it is valid to leave all the fields blank
//
// NewIn panics with an error wrapping memutils.ErrOutOfMemory if the arena cannot provide a record.
func NewIn[T any](arena *record.Arena[T], value T, options CreateOptions) *Box[T] {
	if arena == nil {
		panic("attempted to create a box without an arena")
	}

	h, err := arena.Allocate()
	if err != nil {
		panic(err)
	}

	err = arena.Store(h, value)
	if err != nil {
		panic(fmt.Sprintf("unexpected error when storing the initial payload: %+v", err))
	}

	logger := options.Logger
	if logger == nil {
		logger = arena.Logger()
	}

	box := &Box[T]{
		arena:  arena,
		cached: h,
		name:   options.Name,
		logger: logger,
	}
	box.logger.Debug("Box::New", slog.Uint64("record", uint64(h)), slog.String("name", box.name))

	return box
}
