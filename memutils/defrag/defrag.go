package defrag

// ContextFlags indicate specific Context behaviors to activate or deactivate
type ContextFlags uint32

const (
	// ContextExternallySynchronized ensures that the Context will not lock its registry internally.
	// The consumer must guarantee the Context is used from only one goroutine at a time.
	ContextExternallySynchronized ContextFlags = 1 << iota
)

var contextFlagsMapping = map[ContextFlags]string{
	ContextExternallySynchronized: "ContextExternallySynchronized",
}

func (f ContextFlags) String() string {
	return contextFlagsMapping[f]
}

// PassOptions is used to specify options for a relocation run when calling Context.Init
type PassOptions struct {
	// MaxBytesPerPass is the maximum number of payload bytes to relocate in each pass. 0 means no limit.
	// A movable that does not fit in the remainder of a pass is deferred to the next one, and a movable
	// larger than the whole budget is relocated alone in a pass of its own.
	MaxBytesPerPass int
	// MaxMovesPerPass is the maximum number of movables to relocate in each pass. 0 means no limit.
	MaxMovesPerPass int
}

// DefragmentationStats contains basic metrics for a relocation run
type DefragmentationStats struct {
	// BytesMoved is the number of payload bytes that have been relocated
	BytesMoved int
	// MovablesRelocated is the number of successful relocations
	MovablesRelocated int
	// MovablesDestroyed is the number of movables destroyed because their move was marked MoveDestroy
	MovablesDestroyed int
	// MovesIgnored is the number of moves that were marked MoveIgnore
	MovesIgnored int
	// StubsResolved is the number of pending relocations that were resolved before a movable was
	// handed out in a pass
	StubsResolved int
}

func (s *DefragmentationStats) Add(stats DefragmentationStats) {
	s.BytesMoved += stats.BytesMoved
	s.MovablesRelocated += stats.MovablesRelocated
	s.MovablesDestroyed += stats.MovablesDestroyed
	s.MovesIgnored += stats.MovesIgnored
	s.StubsResolved += stats.StubsResolved
}

type defragCounterStatus uint32

const (
	defragCounterPass defragCounterStatus = iota
	defragCounterDefer
	defragCounterEnd
)

var defragCounterStatusMapping = map[defragCounterStatus]string{
	defragCounterPass:   "defragCounterPass",
	defragCounterDefer:  "defragCounterDefer",
	defragCounterEnd:    "defragCounterEnd",
}

func (s defragCounterStatus) String() string {
	return defragCounterStatusMapping[s]
}
