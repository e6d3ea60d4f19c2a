package diff

// LastForest rebuilds the "last" snapshot as it stands after any replayed
// patches, in root order with children in their stored order.
func (e *Engine) LastForest() ([]Entity, error) {
	return e.forest(e.lastRoots)
}

// CurrentForest rebuilds the "current" snapshot.
func (e *Engine) CurrentForest() ([]Entity, error) {
	return e.forest(e.currentRoots)
}

func (e *Engine) forest(roots []int) ([]Entity, error) {
	out := make([]Entity, 0, len(roots))
	for _, ix := range roots {
		ent, err := e.subtree(ix)
		if err != nil {
			return nil, err
		}
		out = append(out, ent)
	}
	return out, nil
}

// HasLast reports whether (name, role) is reachable in the "last" snapshot.
func (e *Engine) HasLast(name, role string) bool {
	_, ok := e.lastState[NameKey(name, role)]
	return ok
}

// HasCurrent reports whether (name, role) is present in the "current" snapshot.
func (e *Engine) HasCurrent(name, role string) bool {
	_, ok := e.currentState[NameKey(name, role)]
	return ok
}

// LastLen returns the number of reachable "last" entities.
func (e *Engine) LastLen() int { return len(e.lastState) }

// CurrentLen returns the number of "current" entities.
func (e *Engine) CurrentLen() int { return len(e.currentState) }

// ArenaLen returns the number of slots ever allocated, including
// unreachable ones.
func (e *Engine) ArenaLen() int { return len(e.arena) }

// Node returns the arena slot at index. The value shares its map and slices
// with the engine and must not be modified.
func (e *Engine) Node(index int) (Diffable, error) {
	d, err := e.node(index)
	if err != nil {
		return Diffable{}, err
	}
	return *d, nil
}
