package record

import "math"

// Handle is a numeric handle used to identify individual records within an Arena. Handles are
// slot indices: a freed handle may be handed out again by a later allocation.
type Handle uint64

const (
	NoRecord Handle = math.MaxUint64
)

// RecordState is the lifecycle state of a single record slot
type RecordState uint32

const (
	// RecordFree indicates the slot holds no record and is available for allocation
	RecordFree RecordState = iota
	// RecordCanonical indicates the slot holds the current record for its logical object
	RecordCanonical
	// RecordStub indicates the slot has been superseded. Its forward handle is the only meaningful
	// field; its payload must not be read.
	RecordStub
)

var recordStateMapping = map[RecordState]string{
	RecordFree:      "RecordFree",
	RecordCanonical: "RecordCanonical",
	RecordStub:      "RecordStub",
}

func (s RecordState) String() string {
	return recordStateMapping[s]
}

type slot[T any] struct {
	state       RecordState
	forward     Handle
	initialized bool
	payload     T

	nextFree Handle
}

func (s *slot[T]) markCanonical() {
	s.state = RecordCanonical
	s.forward = NoRecord
	s.initialized = false
	s.nextFree = NoRecord
}

func (s *slot[T]) markStub(target Handle) {
	s.state = RecordStub
	s.forward = target
}

func (s *slot[T]) markFree(nextFree Handle) {
	var zero T
	s.payload = zero
	s.initialized = false
	s.state = RecordFree
	s.forward = NoRecord
	s.nextFree = nextFree
}
