package defrag

// PassContext is an object used to track data for the current relocation
// pass across multiple moves
type PassContext struct {
	// MaxPassBytes is the maximum number of payload bytes to relocate in this pass. A single movable
	// larger than this is still relocated when it is the first of the pass.
	MaxPassBytes int
	// MaxPassMoves is the maximum number of relocations to perform in this pass.
	MaxPassMoves int
	// Stats contains statistics for the current pass
	Stats DefragmentationStats
}

// checkCounters decides whether a movable of the given size joins the pass. A movable that would
// overflow the byte budget ends the pass so it can lead the next one, unless the pass is still empty.
func (p *PassContext) checkCounters(bytes int) defragCounterStatus {
	if p.Stats.MovablesRelocated >= p.MaxPassMoves {
		return defragCounterEnd
	}

	if p.Stats.BytesMoved+bytes <= p.MaxPassBytes {
		return defragCounterPass
	}

	if p.Stats.MovablesRelocated == 0 {
		return defragCounterPass
	}

	return defragCounterDefer
}

// incrementCounters records a movable joining the pass and returns true once either budget is spent
func (p *PassContext) incrementCounters(bytes int) bool {
	p.Stats.BytesMoved += bytes
	p.Stats.MovablesRelocated++

	return p.Stats.MovablesRelocated >= p.MaxPassMoves || p.Stats.BytesMoved >= p.MaxPassBytes
}
