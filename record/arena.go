package record

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/movebox/memutils"
	"golang.org/x/exp/slog"
)

const (
	// DefaultPageSize is the number of record slots allocated at once when an Arena grows and no
	// page size was provided in ArenaOptions
	DefaultPageSize int = 64
)

// ArenaOptions contains optional settings when creating an Arena
type ArenaOptions struct {
	// PageSize is the number of record slots allocated at once when the Arena runs out of free slots.
	// It must be a power of two. Pages are never reallocated, so a pointer into a record's payload
	// remains valid for as long as the record remains canonical.
	PageSize int
	// MaxRecords is the maximum number of live records (canonical records and stubs) the Arena will
	// hold at once. Allocating past this limit fails with memutils.ErrOutOfMemory. 0 means no limit.
	MaxRecords int
	// InitialRecords is the number of record slots to allocate up front, rounded up to a whole
	// number of pages
	InitialRecords int
}

// Arena owns a set of records of a single payload type and implements the forwarding protocol
// between them. A record is either canonical, holding the live payload for a logical object, or a stub
// that forwards to the canonical record which superseded it. Forward chains are never longer than
// one hop: only canonical records may be relocated.
//
// Arena is not safe for concurrent use.
type Arena[T any] struct {
	logger *slog.Logger

	pageSize    int
	pageShift   uint
	pageMask    Handle
	maxRecords  int
	payloadSize int

	pages       [][]slot[T]
	freeHead    Handle
	freeCount   int
	recordCount int
	stubCount   int

	stats memutils.DetailedStatistics
}

var _ memutils.Validatable = &Arena[int]{}

// NewArena creates an empty Arena. No record slots are allocated until the first call to Allocate.
//
// logger - The logger used to trace arena operations. If nil, slog.Default() is used.
//
// options - Optional parameters: it is valid to leave all the fields blank
func NewArena[T any](logger *slog.Logger, options ArenaOptions) (*Arena[T], error) {
	if logger == nil {
		logger = slog.Default()
	}

	pageSize := options.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	err := memutils.CheckPow2(pageSize, "ArenaOptions.PageSize")
	if err != nil {
		return nil, err
	}

	if options.MaxRecords < 0 {
		return nil, errors.Newf("ArenaOptions.MaxRecords must not be negative, but was %d", options.MaxRecords)
	}

	if options.InitialRecords < 0 {
		return nil, errors.Newf("ArenaOptions.InitialRecords must not be negative, but was %d", options.InitialRecords)
	}

	arena := &Arena[T]{
		logger:      logger,
		pageSize:    pageSize,
		pageShift:   memutils.Log2(uint(pageSize)),
		pageMask:    Handle(pageSize - 1),
		maxRecords:  options.MaxRecords,
		payloadSize: memutils.SizeOf[T](),
		freeHead:    NoRecord,
	}
	arena.Reserve(options.InitialRecords)

	return arena, nil
}

// Reserve grows the arena until it has at least count record slots, live or free. Slots are added
// a whole page at a time.
func (a *Arena[T]) Reserve(count int) {
	target := memutils.AlignUp(count, uint(a.pageSize))
	for a.capacity() < target {
		a.grow()
	}
}

// PayloadSize is the size in bytes of a single payload stored in this Arena
func (a *Arena[T]) PayloadSize() int { return a.payloadSize }

// Logger returns the logger this Arena traces its operations with
func (a *Arena[T]) Logger() *slog.Logger { return a.logger }

// RecordCount returns the number of live records, canonical records and stubs alike
func (a *Arena[T]) RecordCount() int { return a.recordCount }

// StubCount returns the number of live stubs that have not yet been migrated
func (a *Arena[T]) StubCount() int { return a.stubCount }

// IsEmpty will return true if this Arena has no live records
func (a *Arena[T]) IsEmpty() bool { return a.recordCount == 0 }

func (a *Arena[T]) capacity() int {
	return len(a.pages) * a.pageSize
}

func (a *Arena[T]) getSlot(h Handle) (*slot[T], error) {
	if h == NoRecord || h>>a.pageShift >= Handle(len(a.pages)) {
		return nil, errors.Wrapf(memutils.ErrRecordNotLive, "handle %d is outside of this arena", h)
	}

	return &a.pages[h>>a.pageShift][h&a.pageMask], nil
}

func (a *Arena[T]) getLiveSlot(h Handle) (*slot[T], error) {
	s, err := a.getSlot(h)
	if err != nil {
		return nil, err
	}

	if s.state == RecordFree {
		return nil, errors.Wrapf(memutils.ErrRecordNotLive, "handle %d", h)
	}

	return s, nil
}

func (a *Arena[T]) mustGetLiveSlot(h Handle) *slot[T] {
	s, err := a.getLiveSlot(h)
	if err != nil {
		panic(fmt.Sprintf("unexpected error when retrieving record: %+v", err))
	}

	return s
}

func (a *Arena[T]) grow() {
	base := Handle(a.capacity())
	page := make([]slot[T], a.pageSize)
	a.pages = append(a.pages, page)

	// Push in reverse so that the lowest handle of the page is allocated first
	for i := a.pageSize - 1; i >= 0; i-- {
		page[i].markFree(a.freeHead)
		a.freeHead = base + Handle(i)
	}
	a.freeCount += a.pageSize

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "    Added record page",
		slog.Int("pageCount", len(a.pages)),
		slog.Int("pageSize", a.pageSize))
}

func (a *Arena[T]) allocateSlot() (Handle, *slot[T], error) {
	if a.maxRecords > 0 && a.recordCount >= a.maxRecords {
		return NoRecord, nil, errors.Wrapf(memutils.ErrOutOfMemory, "arena is limited to %d records", a.maxRecords)
	}

	if a.freeHead == NoRecord {
		a.grow()
	}

	h := a.freeHead
	s, err := a.getSlot(h)
	if err != nil {
		return NoRecord, nil, err
	}

	a.freeHead = s.nextFree
	a.freeCount--
	a.recordCount++
	a.stats.AddAllocation()

	s.markCanonical()
	return h, s, nil
}

func (a *Arena[T]) freeSlot(h Handle, s *slot[T]) {
	if s.state == RecordStub {
		a.stubCount--
	}

	s.markFree(a.freeHead)
	a.freeHead = h
	a.freeCount++
	a.recordCount--
	a.stats.AddFree()
}

// Allocate creates a new canonical record with an uninitialized payload and returns its handle.
// The payload can be initialized with Store.
//
// An error wrapping memutils.ErrOutOfMemory is returned if the arena has reached ArenaOptions.MaxRecords.
func (a *Arena[T]) Allocate() (Handle, error) {
	h, _, err := a.allocateSlot()
	if err != nil {
		return NoRecord, err
	}

	a.logger.Debug("Arena::Allocate", slog.Uint64("handle", uint64(h)))
	memutils.DebugValidate(a)
	return h, nil
}

// Store initializes the payload of a canonical record that does not yet hold one
func (a *Arena[T]) Store(h Handle, value T) error {
	s, err := a.getLiveSlot(h)
	if err != nil {
		return err
	}

	if s.state != RecordCanonical {
		return errors.Newf("attempted to store a payload in record %d, which is %s", h, s.state)
	}

	if s.initialized {
		return errors.Newf("attempted to store a payload in record %d, which already holds one", h)
	}

	s.payload = value
	s.initialized = true
	return nil
}

// Relocate requests that the object stored in the record h be moved to a new record. h must be
// canonical; if it is not, an error wrapping memutils.ErrStaleRelocation is returned.
//
// A new canonical record is allocated with an uninitialized payload and h is demoted to a stub
// forwarding to it. No payload is moved and nothing is freed: the payload is migrated by Migrate,
// which the owner of h is expected to call before it next accesses the payload. The handle of the
// new record is returned.
func (a *Arena[T]) Relocate(h Handle) (Handle, error) {
	s, err := a.getSlot(h)
	if err != nil {
		return NoRecord, errors.Wrapf(memutils.ErrStaleRelocation, "handle %d is outside of this arena", h)
	}

	if s.state != RecordCanonical {
		return NoRecord, errors.Wrapf(memutils.ErrStaleRelocation, "record %d is %s", h, s.state)
	}

	target, _, err := a.allocateSlot()
	if err != nil {
		return NoRecord, err
	}

	// allocateSlot may have grown the page list, but pages are never moved
	s.markStub(target)
	a.stubCount++
	a.stats.AddRelocation()

	a.logger.Debug("Arena::Relocate", slog.Uint64("handle", uint64(h)), slog.Uint64("target", uint64(target)))
	memutils.DebugValidate(a)
	return target, nil
}

// Forward returns h if h is canonical, or the canonical record h forwards to if h is a stub.
// It panics if h is not a live record.
func (a *Arena[T]) Forward(h Handle) Handle {
	s := a.mustGetLiveSlot(h)
	if s.state == RecordCanonical {
		return h
	}

	return s.forward
}

// IsCanonical returns true if h is a live canonical record
func (a *Arena[T]) IsCanonical(h Handle) bool {
	s, err := a.getSlot(h)
	if err != nil {
		return false
	}

	return s.state == RecordCanonical
}

// State returns the lifecycle state of the slot h. Handles outside of the arena are reported as RecordFree.
func (a *Arena[T]) State(h Handle) RecordState {
	s, err := a.getSlot(h)
	if err != nil {
		return RecordFree
	}

	return s.state
}

// Migrate moves the payload of the stub h into the canonical record it forwards to, frees h, and
// returns the canonical record's handle. The stub's payload slot is left empty. Because relocation
// only ever demotes canonical records, the record h forwards to is always canonical.
func (a *Arena[T]) Migrate(h Handle) (Handle, error) {
	s, err := a.getLiveSlot(h)
	if err != nil {
		return NoRecord, err
	}

	if s.state != RecordStub {
		return NoRecord, errors.Newf("attempted to migrate record %d, which is %s", h, s.state)
	}

	target := s.forward
	dst, err := a.getLiveSlot(target)
	if err != nil {
		return NoRecord, errors.Wrapf(err, "stub %d forwards to a dead record", h)
	}

	if dst.state != RecordCanonical {
		return NoRecord, errors.Newf("stub %d forwards to record %d, which is %s", h, target, dst.state)
	}

	if s.initialized {
		dst.payload = s.payload
		dst.initialized = true
		a.stats.AddMigration(a.payloadSize)
	}

	a.freeSlot(h, s)

	a.logger.Debug("Arena::Migrate", slog.Uint64("handle", uint64(h)), slog.Uint64("target", uint64(target)))
	memutils.DebugValidate(a)
	return target, nil
}

// Payload returns a pointer to the payload of the canonical record h. The pointer is valid until h
// is relocated and migrated, or freed.
func (a *Arena[T]) Payload(h Handle) (*T, error) {
	s, err := a.getLiveSlot(h)
	if err != nil {
		return nil, err
	}

	if s.state != RecordCanonical {
		return nil, errors.Newf("attempted to access the payload of record %d, which is %s", h, s.state)
	}

	if !s.initialized {
		return nil, errors.Newf("attempted to access the payload of record %d before it was initialized", h)
	}

	return &s.payload, nil
}

// Free releases the canonical record h, dropping its payload. Stubs cannot be freed directly: they
// are released by Migrate.
func (a *Arena[T]) Free(h Handle) error {
	s, err := a.getLiveSlot(h)
	if err != nil {
		return err
	}

	if s.state != RecordCanonical {
		return errors.Newf("attempted to free record %d, which is %s", h, s.state)
	}

	a.freeSlot(h, s)

	a.logger.Debug("Arena::Free", slog.Uint64("handle", uint64(h)))
	memutils.DebugValidate(a)
	return nil
}

// VisitAllRecords will call the provided callback once for each live record in the arena, in
// handle order. forward is NoRecord for canonical records.
func (a *Arena[T]) VisitAllRecords(handleRecord func(h Handle, state RecordState, forward Handle, initialized bool) error) error {
	for pageIndex, page := range a.pages {
		for i := range page {
			s := &page[i]
			if s.state == RecordFree {
				continue
			}

			h := Handle(pageIndex<<a.pageShift) + Handle(i)
			err := handleRecord(h, s.state, s.forward, s.initialized)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Validate performs internal consistency checks on the arena: every stub forwards exactly one hop to
// a canonical record, no canonical record is the target of more than one stub, and the free list and
// counters agree with the slot states.
func (a *Arena[T]) Validate() error {
	var canonicalCount, stubCount, freeCount int
	inbound := make(map[Handle]Handle)

	for pageIndex, page := range a.pages {
		for i := range page {
			s := &page[i]
			h := Handle(pageIndex<<a.pageShift) + Handle(i)

			switch s.state {
			case RecordFree:
				freeCount++
				if s.initialized {
					return errors.Errorf("free record %d still holds a payload", h)
				}
			case RecordCanonical:
				canonicalCount++
			case RecordStub:
				stubCount++

				target, err := a.getSlot(s.forward)
				if err != nil {
					return errors.Wrapf(err, "stub %d has an invalid forward handle", h)
				}

				if target.state != RecordCanonical {
					return errors.Errorf("stub %d forwards to record %d, which is %s", h, s.forward, target.state)
				}

				if s.initialized && target.initialized {
					return errors.Errorf("stub %d still holds a payload but its target %d has already been initialized", h, s.forward)
				}

				if other, exists := inbound[s.forward]; exists {
					return errors.Errorf("record %d is the forward target of both stub %d and stub %d", s.forward, other, h)
				}
				inbound[s.forward] = h
			default:
				return errors.Errorf("record %d has unknown state %d", h, s.state)
			}
		}
	}

	if canonicalCount+stubCount != a.recordCount {
		return errors.Errorf("arena counts %d records, but %d canonical records and %d stubs are present", a.recordCount, canonicalCount, stubCount)
	}

	if stubCount != a.stubCount {
		return errors.Errorf("arena counts %d stubs, but %d are present", a.stubCount, stubCount)
	}

	if freeCount != a.freeCount {
		return errors.Errorf("arena counts %d free slots, but %d are present", a.freeCount, freeCount)
	}

	var freeListCount int
	for h := a.freeHead; h != NoRecord; {
		if freeListCount >= freeCount {
			return errors.New("free list is longer than the number of free slots")
		}

		s, err := a.getSlot(h)
		if err != nil {
			return errors.Wrap(err, "free list contains an invalid handle")
		}

		if s.state != RecordFree {
			return errors.Errorf("record %d is in the free list but is %s", h, s.state)
		}

		freeListCount++
		h = s.nextFree
	}

	if freeListCount != freeCount {
		return errors.Errorf("free list has %d entries, but %d slots are free", freeListCount, freeCount)
	}

	if a.stats.AllocationCount-a.stats.FreeCount != a.recordCount {
		return errors.Errorf("arena allocated %d records and freed %d, but %d are live", a.stats.AllocationCount, a.stats.FreeCount, a.recordCount)
	}

	return nil
}

// AddStatistics sums this arena's record statistics into the statistics currently present in the
// provided memutils.Statistics object.
func (a *Arena[T]) AddStatistics(stats *memutils.Statistics) {
	stats.RecordCount += a.recordCount
	stats.StubCount += a.stubCount
	stats.RecordBytes += a.recordCount * a.payloadSize
	stats.FreeSlotCount += a.freeCount
}

// AddDetailedStatistics sums this arena's record statistics and lifetime counters into the statistics
// currently present in the provided memutils.DetailedStatistics object.
func (a *Arena[T]) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	a.AddStatistics(&stats.Statistics)
	stats.AllocationCount += a.stats.AllocationCount
	stats.FreeCount += a.stats.FreeCount
	stats.RelocationCount += a.stats.RelocationCount
	stats.MigrationCount += a.stats.MigrationCount
	stats.BytesMoved += a.stats.BytesMoved
}

// PrintDetailedMap writes a json object describing the arena and each of its live records
func (a *Arena[T]) PrintDetailedMap(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	var stats memutils.DetailedStatistics
	a.AddDetailedStatistics(&stats)

	obj.Name("PageSize").Int(a.pageSize)
	obj.Name("Pages").Int(len(a.pages))
	obj.Name("PayloadSize").Int(a.payloadSize)
	stats.PrintJson(&obj)

	records := obj.Name("RecordMap").Array()
	defer records.End()

	_ = a.VisitAllRecords(func(h Handle, state RecordState, forward Handle, initialized bool) error {
		o := records.Object()
		o.Name("Handle").Int(int(h))
		o.Name("State").String(state.String())
		if state == RecordStub {
			o.Name("Forward").Int(int(forward))
		}
		o.Name("Initialized").Bool(initialized)
		o.End()
		return nil
	})
}

// Destroy releases the arena's pages. If any records are still live, they are logged and an error is
// returned instead.
func (a *Arena[T]) Destroy() error {
	if !a.IsEmpty() {
		err := a.VisitAllRecords(func(h Handle, state RecordState, forward Handle, initialized bool) error {
			a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED RECORD] unfreed record",
				slog.Uint64("handle", uint64(h)),
				slog.String("state", state.String()),
				slog.Bool("initialized", initialized),
			)
			return nil
		})
		if err != nil {
			a.logger.LogAttrs(context.Background(),
				slog.LevelError,
				"[UNRELEASED RECORD] error while iterating unreleased records",
				slog.Any("error", err))
		}

		return errors.Newf("%d records were not freed before the destruction of this arena", a.recordCount)
	}

	a.pages = nil
	a.freeHead = NoRecord
	a.freeCount = 0
	return nil
}
