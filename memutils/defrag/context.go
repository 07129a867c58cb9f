package defrag

import (
	"errors"
	"fmt"
	"math"

	cerrors "github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/movebox/internal/utils"
	"github.com/vkngwrapper/movebox/memutils"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// Context drives relocation runs over a set of registered Movable objects on behalf of an external
// driver. A run consists of multiple passes: BeginPass hands out a budgeted batch of moves, the driver
// may change each move's operation, and EndPass carries the moves out. Context does not decide when a
// run happens or where anything is placed.
//
// Movables are visited in registration order. Before a Movable is handed out it is resolved, so a
// Movable relocated in one run can safely be relocated again in the next. Movables destroyed outside
// of the Context are unregistered when a pass reaches them.
type Context struct {
	// Handler is an optional method that will be called for each move completed by EndPass
	Handler Handler

	logger *slog.Logger
	mutex  utils.OptionalMutex

	registry *swiss.Map[MovableID, Movable]
	ids      *swiss.Map[Movable, MovableID]
	order    []MovableID
	nextID   MovableID

	maxPassBytes int
	maxPassMoves int
	progress     int
	pass         PassContext
	moves        []Move
	stats        DefragmentationStats
}

// NewContext creates an empty Context
//
// logger - The logger used to trace passes. If nil, slog.Default() is used.
//
// flags - Optional ContextFlags
func NewContext(logger *slog.Logger, flags ContextFlags) *Context {
	if logger == nil {
		logger = slog.Default()
	}

	return &Context{
		logger: logger,
		mutex: utils.OptionalMutex{
			UseMutex: flags&ContextExternallySynchronized == 0,
		},
		registry:     swiss.NewMap[MovableID, Movable](42),
		ids:          swiss.NewMap[Movable, MovableID](42),
		maxPassBytes: math.MaxInt,
		maxPassMoves: math.MaxInt,
	}
}

// Register adds a Movable to the Context and returns the ID it can be unregistered with. It returns
// an error wrapping memutils.ErrDuplicateMovable if the Movable is already registered.
func (c *Context) Register(movable Movable) (MovableID, error) {
	if movable == nil {
		panic("attempted to register a nil movable")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	existing, ok := c.ids.Get(movable)
	if ok {
		return existing, cerrors.Wrapf(memutils.ErrDuplicateMovable, "movable %q has id %d", movable.Name(), existing)
	}

	c.nextID++
	id := c.nextID
	c.registry.Put(id, movable)
	c.ids.Put(movable, id)
	c.order = append(c.order, id)

	c.logger.Debug("Context::Register", slog.Uint64("id", uint64(id)), slog.String("name", movable.Name()))
	return id, nil
}

// Unregister removes a Movable from the Context. It returns an error wrapping memutils.ErrUnknownMovable
// if the ID is not registered.
func (c *Context) Unregister(id MovableID) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.unregister(id)
}

func (c *Context) unregister(id MovableID) error {
	movable, ok := c.registry.Get(id)
	if !ok {
		return cerrors.Wrapf(memutils.ErrUnknownMovable, "id %d", id)
	}

	c.registry.Delete(id)
	c.ids.Delete(movable)

	index := slices.Index(c.order, id)
	if index < 0 {
		panic(fmt.Sprintf("movable %d is registered but missing from the registration order", id))
	}
	c.order = slices.Delete(c.order, index, index+1)

	if index < c.progress {
		c.progress--
	}

	c.logger.Debug("Context::Unregister", slog.Uint64("id", uint64(id)))
	return nil
}

func (c *Context) mustUnregister(id MovableID) {
	err := c.unregister(id)
	if err != nil {
		panic(fmt.Sprintf("unexpected error when unregistering movable: %+v", err))
	}
}

// Movable retrieves a registered Movable by ID
func (c *Context) Movable(id MovableID) (Movable, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.registry.Get(id)
}

// Count returns the number of registered movables
func (c *Context) Count() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.order)
}

// Init sets up this Context for a fresh relocation run. A Context can be used for multiple runs, as
// long as this method is called prior to beginning each run, including the first.
func (c *Context) Init(options PassOptions) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxPassBytes = options.MaxBytesPerPass
	c.maxPassMoves = options.MaxMovesPerPass

	if c.maxPassBytes == 0 {
		c.maxPassBytes = math.MaxInt
	}

	if c.maxPassMoves == 0 {
		c.maxPassMoves = math.MaxInt
	}

	c.progress = 0
	c.moves = c.moves[:0]
	c.stats = DefragmentationStats{}
}

// BeginPass collects a single pass's worth of moves and returns them. Each returned Movable has
// already been resolved. Before calling EndPass, the consumer may set Move.MoveOperation to
// MoveIgnore or MoveDestroy on any of the returned moves. The returned slice is reused by the next pass.
func (c *Context) BeginPass() []Move {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.logger.Debug("Context::BeginPass", slog.Int("progress", c.progress))

	c.pass = PassContext{
		MaxPassBytes: c.maxPassBytes,
		MaxPassMoves: c.maxPassMoves,
	}
	c.moves = c.moves[:0]

	for c.progress < len(c.order) {
		id := c.order[c.progress]
		movable, ok := c.registry.Get(id)
		if !ok {
			panic(fmt.Sprintf("movable %d is in the registration order but not registered", id))
		}

		if movable.IsDestroyed() {
			// Unregistering removes the entry at progress, so the next movable slides into place
			c.mustUnregister(id)
			continue
		}

		size := movable.PayloadSize()
		counter := c.pass.checkCounters(size)
		switch counter {
		case defragCounterDefer, defragCounterEnd:
			return c.moves
		case defragCounterPass:
			break
		default:
			panic(fmt.Sprintf("unexpected defrag counter status: %s", counter.String()))
		}

		if movable.Resolve() {
			c.pass.Stats.StubsResolved++
		}

		c.moves = append(c.moves, Move{
			ID:            id,
			Movable:       movable,
			Size:          size,
			MoveOperation: MoveRelocate,
		})
		c.progress++

		// Have we crossed our threshold for this pass?
		if c.pass.incrementCounters(size) {
			break
		}
	}

	return c.moves
}

// EndPass carries out the moves returned by the most recent BeginPass according to their
// MoveOperation, calls Handler for each of them, and adds the pass's statistics to the run.
//
// Errors returned by Handler are combined with errors.Join. EndPass returns true if the run is now
// complete, or false if additional passes are necessary.
func (c *Context) EndPass() (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.logger.Debug("Context::EndPass", slog.Int("moves", len(c.moves)))

	var allErrors []error

	for i := 0; i < len(c.moves); i++ {
		move := c.moves[i]

		switch move.MoveOperation {
		case MoveRelocate:
			move.Movable.Relocate()

		case MoveIgnore:
			c.pass.Stats.BytesMoved -= move.Size
			c.pass.Stats.MovablesRelocated--
			c.pass.Stats.MovesIgnored++

		case MoveDestroy:
			c.pass.Stats.BytesMoved -= move.Size
			c.pass.Stats.MovablesRelocated--
			c.pass.Stats.MovablesDestroyed++

			move.Movable.Destroy()
			err := c.unregister(move.ID)
			if err != nil {
				allErrors = append(allErrors, err)
				continue
			}

		default:
			panic(fmt.Sprintf("unknown move operation: %d", move.MoveOperation))
		}

		if c.Handler != nil {
			err := c.Handler(move)
			if err != nil {
				allErrors = append(allErrors, err)
			}
		}
	}

	c.stats.Add(c.pass.Stats)
	c.pass.Stats = DefragmentationStats{}
	c.moves = c.moves[:0]

	done := c.progress >= len(c.order)

	if len(allErrors) == 1 {
		return done, allErrors[0]
	}

	if len(allErrors) > 0 {
		return done, errors.Join(allErrors...)
	}

	return done, nil
}

// Finish copies the statistics for the whole run into outStats. It should be called whenever
// EndPass returns true.
func (c *Context) Finish(outStats *DefragmentationStats) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.logger.Debug("Context::Finish")

	if outStats != nil {
		*outStats = c.stats
	}
}
