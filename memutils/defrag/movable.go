package defrag

//go:generate mockgen -source movable.go -destination ./mocks/movable.go -package mock_defrag

// MovableID identifies a Movable registered with a Context
type MovableID uint64

// Movable is a single-owner object whose storage can be relocated. *movebox.Box satisfies this
// interface for every payload type.
type Movable interface {
	// Resolve completes any pending relocation and returns true if one was pending
	Resolve() bool
	// Relocate moves the object to new storage. It may only be called after Resolve.
	Relocate()
	// Destroy drops the object and frees its storage
	Destroy()
	// IsDestroyed returns true once the object has been destroyed, whether or not a Context did it
	IsDestroyed() bool
	// PayloadSize is the number of bytes that will be moved by a relocation
	PayloadSize() int
	// Name is a diagnostic name for the object
	Name() string
}
