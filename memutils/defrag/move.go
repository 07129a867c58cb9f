package defrag

// MoveOperation is the action Context.EndPass takes for a single Move
type MoveOperation uint32

const (
	// MoveRelocate relocates the movable. This is the operation every Move starts with.
	MoveRelocate MoveOperation = iota
	// MoveIgnore leaves the movable where it is
	MoveIgnore
	// MoveDestroy destroys the movable and removes it from the Context instead of relocating it
	MoveDestroy
)

var moveOperationMapping = map[MoveOperation]string{
	MoveRelocate: "MoveRelocate",
	MoveIgnore:   "MoveIgnore",
	MoveDestroy:  "MoveDestroy",
}

func (o MoveOperation) String() string {
	return moveOperationMapping[o]
}

// Handler is called by Context.EndPass once for each Move after its operation has been carried out
type Handler func(move Move) error

// Move is a single relocation handed out by Context.BeginPass. The consumer may change MoveOperation
// before calling Context.EndPass.
type Move struct {
	ID            MovableID
	Movable       Movable
	Size          int
	MoveOperation MoveOperation
}
