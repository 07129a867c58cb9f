package movebox_test

import (
	"math/rand"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/movebox"
	"github.com/vkngwrapper/movebox/memutils"
	"github.com/vkngwrapper/movebox/memutils/defrag"
	"github.com/vkngwrapper/movebox/record"
)

var _ defrag.Movable = &movebox.Box[int]{}

func requirePanicsWithErrorIs(t *testing.T, target error, f func()) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")

		err, ok := r.(error)
		require.True(t, ok, "expected the panic value to be an error, but was %+v", r)
		require.ErrorIs(t, err, target)
	}()

	f()
}

func detailedStats[T any](arena *record.Arena[T]) memutils.DetailedStatistics {
	var stats memutils.DetailedStatistics
	arena.AddDetailedStatistics(&stats)
	return stats
}

func TestRelocateThenRead(t *testing.T) {
	box := movebox.New(5)
	require.Equal(t, 5, box.Read())

	box.Relocate()
	require.True(t, box.IsStale())
	require.Equal(t, 5, box.Read())
	require.False(t, box.IsStale())

	stats := detailedStats(box.Arena())
	require.Equal(t, 2, stats.AllocationCount)
	require.Equal(t, 1, stats.FreeCount)
	require.Equal(t, 1, stats.RelocationCount)
	require.Equal(t, 1, stats.MigrationCount)
	require.Equal(t, 1, stats.RecordCount)
	require.Equal(t, 0, stats.StubCount)

	box.Destroy()
}

func TestIndependentBoxes(t *testing.T) {
	box1 := movebox.New(5)
	require.Equal(t, 5, box1.Read())
	box1.Relocate()
	require.Equal(t, 5, box1.Read())

	box2 := movebox.New(6)
	require.Equal(t, 6, box2.Read())

	box1.Relocate()
	box2.Relocate()
	require.Equal(t, 5, box1.Read())
	require.Equal(t, 6, box2.Read())

	box1.Destroy()
	box2.Destroy()
}

func TestIndependentBoxesSharedArena(t *testing.T) {
	arena, err := record.NewArena[int](nil, record.ArenaOptions{})
	require.NoError(t, err)

	box1 := movebox.NewIn(arena, 5, movebox.CreateOptions{Name: "first"})
	box2 := movebox.NewIn(arena, 6, movebox.CreateOptions{Name: "second"})

	box1.Relocate()
	box2.Relocate()
	require.NoError(t, arena.Validate())
	require.Equal(t, 2, arena.StubCount())
	require.Equal(t, 4, arena.RecordCount())

	require.Equal(t, 5, box1.Read())
	require.Equal(t, 6, box2.Read())
	require.Equal(t, 0, arena.StubCount())
	require.Equal(t, 2, arena.RecordCount())
	require.NoError(t, arena.Validate())

	box1.Destroy()
	box2.Destroy()
	require.True(t, arena.IsEmpty())
	require.NoError(t, arena.Destroy())
}

func TestDoubleRelocatePanics(t *testing.T) {
	box := movebox.New(1)
	box.Relocate()

	requirePanicsWithErrorIs(t, memutils.ErrStaleRelocation, func() {
		box.Relocate()
	})

	// The failed relocation must not have disturbed the forward chain
	require.NoError(t, box.Arena().Validate())
	require.Equal(t, 1, box.Read())
}

func TestResolveSatisfiesRelocate(t *testing.T) {
	box := movebox.New("payload")

	require.False(t, box.Resolve())

	box.Relocate()
	require.True(t, box.Resolve())
	require.False(t, box.Resolve())

	box.Relocate()
	require.Equal(t, "payload", box.Read())
}

func TestSingleHop(t *testing.T) {
	box := movebox.New(42)
	arena := box.Arena()

	for i := 0; i < 10; i++ {
		stale := box.Address()
		box.Relocate()

		target := arena.Forward(stale)
		require.NotEqual(t, stale, target)
		require.Equal(t, record.RecordStub, arena.State(stale))
		require.Equal(t, record.RecordCanonical, arena.State(target))
		require.Equal(t, target, arena.Forward(target))

		migrationsBefore := detailedStats(arena).MigrationCount
		require.Equal(t, 42, box.Read())
		require.Equal(t, target, box.Address())
		require.Equal(t, migrationsBefore+1, detailedStats(arena).MigrationCount)
	}
}

func TestWriteThroughRelocation(t *testing.T) {
	type point struct {
		X, Y int
	}

	box := movebox.New(point{X: 1, Y: 2})

	p := box.Write()
	p.X = 10
	require.Equal(t, point{X: 10, Y: 2}, box.Read())

	box.Relocate()
	p = box.Write()
	p.Y = 20
	require.Equal(t, point{X: 10, Y: 20}, box.Read())

	box.Relocate()
	box.Set(point{X: 3, Y: 4})
	require.Equal(t, point{X: 3, Y: 4}, box.Read())
}

func TestDestroyReclaimsPendingStub(t *testing.T) {
	box := movebox.New([]int{1, 2, 3})
	arena := box.Arena()

	box.Relocate()
	require.Equal(t, 2, arena.RecordCount())

	box.Destroy()
	require.True(t, box.IsDestroyed())
	require.True(t, arena.IsEmpty())

	stats := detailedStats(arena)
	require.Equal(t, stats.AllocationCount, stats.FreeCount)
	require.Equal(t, 2, stats.AllocationCount)
}

func TestUseAfterDestroyPanics(t *testing.T) {
	box := movebox.New(7)
	box.Destroy()

	requirePanicsWithErrorIs(t, memutils.ErrBoxDestroyed, func() { box.Read() })
	requirePanicsWithErrorIs(t, memutils.ErrBoxDestroyed, func() { box.Write() })
	requirePanicsWithErrorIs(t, memutils.ErrBoxDestroyed, func() { box.Relocate() })
	requirePanicsWithErrorIs(t, memutils.ErrBoxDestroyed, func() { box.Destroy() })
	require.False(t, box.IsStale())
}

func TestOutOfMemory(t *testing.T) {
	arena, err := record.NewArena[int](nil, record.ArenaOptions{MaxRecords: 2})
	require.NoError(t, err)

	box1 := movebox.NewIn(arena, 1, movebox.CreateOptions{})
	box1.Relocate()

	requirePanicsWithErrorIs(t, memutils.ErrOutOfMemory, func() {
		movebox.NewIn(arena, 2, movebox.CreateOptions{})
	})

	require.Equal(t, 1, box1.Read())
	box2 := movebox.NewIn(arena, 2, movebox.CreateOptions{})

	requirePanicsWithErrorIs(t, memutils.ErrOutOfMemory, func() {
		box2.Relocate()
	})
	require.False(t, box2.IsStale())
	require.Equal(t, 2, box2.Read())
	require.NoError(t, arena.Validate())

	box1.Destroy()
	box2.Destroy()
	require.NoError(t, arena.Destroy())
}

func TestRandomRelocationPreservesValue(t *testing.T) {
	arena, err := record.NewArena[int64](nil, record.ArenaOptions{PageSize: 4})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))

	boxes := make([]*movebox.Box[int64], 8)
	expected := make([]int64, len(boxes))
	for i := range boxes {
		expected[i] = rng.Int63()
		boxes[i] = movebox.NewIn(arena, expected[i], movebox.CreateOptions{})
	}

	relocations := 0
	for step := 0; step < 2000; step++ {
		i := rng.Intn(len(boxes))
		box := boxes[i]

		switch rng.Intn(3) {
		case 0:
			if !box.IsStale() {
				box.Relocate()
				relocations++
			}
		case 1:
			require.Equal(t, expected[i], box.Read())
		case 2:
			expected[i] = rng.Int63()
			*box.Write() = expected[i]
		}

		require.NoError(t, arena.Validate())
	}

	for i, box := range boxes {
		require.Equal(t, expected[i], box.Read())
		box.Destroy()
	}

	stats := detailedStats(arena)
	require.Equal(t, len(boxes)+relocations, stats.AllocationCount)
	require.Equal(t, stats.AllocationCount, stats.FreeCount)
	require.Equal(t, relocations, stats.RelocationCount)
	require.Equal(t, relocations, stats.MigrationCount)
	require.True(t, arena.IsEmpty())
}

func TestPrintParameters(t *testing.T) {
	box := movebox.New(3)
	box.SetName("counter")
	box.Relocate()

	writer := jwriter.NewWriter()
	obj := writer.Object()
	box.PrintParameters(&obj)
	obj.End()

	require.NoError(t, writer.Error())
	require.JSONEq(t, `{"Name":"counter","PayloadSize":8,"Destroyed":false,"Record":0,"Stale":true}`, string(writer.Bytes()))
	require.Equal(t, `Box{name: "counter", record: 0, stale: true}`, box.String())

	box.Destroy()
	require.Equal(t, `Box{name: "counter", destroyed}`, box.String())
}
