package movebox

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/movebox/memutils"
	"github.com/vkngwrapper/movebox/record"
	"golang.org/x/exp/slog"
)

// Box is the sole owner of a single value of type T stored in a record.Arena. The record holding the
// value may be relocated at any time through Relocate; the Box follows the move lazily on its next
// access.
//
// The payload type must be safe to copy by value: a T must not hold pointers into its own storage.
//
// Box is not safe for concurrent use, and all access methods, including Read, may mutate it.
type Box[T any] struct {
	arena     *record.Arena[T]
	cached    record.Handle
	name      string
	logger    *slog.Logger
	destroyed bool
}

func (b *Box[T]) checkLive() {
	if b.destroyed {
		panic(errors.Wrapf(memutils.ErrBoxDestroyed, "box %q", b.name))
	}
}

// Resolve ensures the Box's cached record is canonical. If the record has been relocated since the
// last access, the payload is moved into the new record, the old record is freed, and true is
// returned. Otherwise Resolve returns false without doing any work.
//
// Every access method resolves first, so calling Resolve directly is only necessary to satisfy the
// precondition of Relocate without otherwise touching the payload.
func (b *Box[T]) Resolve() bool {
	b.checkLive()

	if b.arena.Forward(b.cached) == b.cached {
		return false
	}

	b.migrate()
	return true
}

func (b *Box[T]) migrate() {
	stale := b.cached

	canonical, err := b.arena.Migrate(stale)
	if err != nil {
		panic(fmt.Sprintf("unexpected error when migrating box payload: %+v", err))
	}

	b.cached = canonical
	b.logger.Debug("Box::Resolve",
		slog.Uint64("from", uint64(stale)),
		slog.Uint64("to", uint64(canonical)),
		slog.String("name", b.name))
}

func (b *Box[T]) payload() *T {
	b.Resolve()

	p, err := b.arena.Payload(b.cached)
	if err != nil {
		panic(fmt.Sprintf("unexpected error when accessing box payload: %+v", err))
	}

	return p
}

// Read returns a copy of the value held by the Box
func (b *Box[T]) Read() T {
	return *b.payload()
}

// Write returns a pointer to the value held by the Box. The pointer remains valid until the Box is
// relocated and accessed again, or destroyed, and must not be retained past that point. The record it
// points into is returned to the arena's free list, so in an arena shared through NewIn a retained
// pointer may end up aliasing another Box's value.
func (b *Box[T]) Write() *T {
	return b.payload()
}

// Set replaces the value held by the Box
func (b *Box[T]) Set(value T) {
	*b.payload() = value
}

// Relocate moves the Box's value to a newly-allocated record. The move itself is deferred: the old
// record becomes a stub and the payload is migrated on the Box's next access.
//
// The Box must have been accessed or resolved since its last relocation. Relocate panics with an error
// wrapping memutils.ErrStaleRelocation if it has not, and with an error wrapping memutils.ErrOutOfMemory
// if the arena cannot provide a new record.
func (b *Box[T]) Relocate() {
	b.checkLive()

	target, err := b.arena.Relocate(b.cached)
	if err != nil {
		panic(errors.Wrapf(err, "failed to relocate box %q", b.name))
	}

	b.logger.Debug("Box::Relocate",
		slog.Uint64("record", uint64(b.cached)),
		slog.Uint64("target", uint64(target)),
		slog.String("name", b.name))
}

// Destroy drops the Box's value and frees its record. If a relocation is pending, the stub is
// reclaimed first. Any use of the Box after Destroy panics.
func (b *Box[T]) Destroy() {
	b.Resolve()

	err := b.arena.Free(b.cached)
	if err != nil {
		panic(fmt.Sprintf("unexpected error when freeing box record: %+v", err))
	}

	b.logger.Debug("Box::Destroy", slog.Uint64("record", uint64(b.cached)), slog.String("name", b.name))

	b.cached = record.NoRecord
	b.destroyed = true
}

// IsStale returns true if the Box has been relocated and not accessed since
func (b *Box[T]) IsStale() bool {
	if b.destroyed {
		return false
	}

	return b.arena.Forward(b.cached) != b.cached
}

// IsDestroyed returns true once Destroy has been called
func (b *Box[T]) IsDestroyed() bool { return b.destroyed }

// Address returns the cached record handle, which may be a stub if IsStale returns true
func (b *Box[T]) Address() record.Handle { return b.cached }

// Arena returns the record store this Box allocates from
func (b *Box[T]) Arena() *record.Arena[T] { return b.arena }

// PayloadSize returns the size in bytes of the value held by the Box
func (b *Box[T]) PayloadSize() int { return b.arena.PayloadSize() }

func (b *Box[T]) SetName(name string) {
	b.name = name
}

func (b *Box[T]) Name() string {
	return b.name
}

// PrintParameters writes information about this Box into a json object. It does not resolve the Box.
func (b *Box[T]) PrintParameters(json *jwriter.ObjectState) {
	if b.name != "" {
		json.Name("Name").String(b.name)
	}
	json.Name("PayloadSize").Int(b.PayloadSize())
	json.Name("Destroyed").Bool(b.destroyed)

	if !b.destroyed {
		json.Name("Record").Int(int(b.cached))
		json.Name("Stale").Bool(b.IsStale())
	}
}

func (b *Box[T]) String() string {
	if b.destroyed {
		return fmt.Sprintf("Box{name: %q, destroyed}", b.name)
	}

	return fmt.Sprintf("Box{name: %q, record: %d, stale: %t}", b.name, b.cached, b.IsStale())
}
