package diff

import (
	"fmt"
	"log/slog"
	"slices"
)

// Patch applies op to the "last" snapshot. The "current" snapshot is never
// touched. A failed call leaves the engine exactly as it was.
func (e *Engine) Patch(op Patch) error {
	var err error
	switch p := op.(type) {
	case *DeletePatch:
		err = e.applyDelete(p)
	case *ModifyPatch:
		err = e.applyModify(p)
	case *NewPatch:
		err = e.applyNew(p)
	default:
		return fmt.Errorf("unsupported patch type %T", op)
	}
	if err != nil {
		return err
	}
	name, role := op.Subject()
	e.logger.Debug("replayed patch",
		slog.String("kind", string(op.Kind())),
		slog.String("name", name),
		slog.String("role", role))
	return nil
}

// Replay applies patches in order and stops at the first failure. It returns
// the number of patches applied.
func (e *Engine) Replay(patches []Patch) (int, error) {
	for i, p := range patches {
		if err := e.Patch(p); err != nil {
			name, role := p.Subject()
			return i, fmt.Errorf("patch %d (%s %s %s): %w", i, p.Kind(), role, name, err)
		}
	}
	return len(patches), nil
}

// applyDelete detaches the node from its parent (or the root list) and drops
// every descendant from lastState. The slots stay in the arena.
func (e *Engine) applyDelete(p *DeletePatch) error {
	index, ok := e.lastState[NameKey(p.Name, p.Role)]
	if !ok {
		return &EntityNotFoundError{Name: p.Name, Role: p.Role}
	}
	doomed, err := e.descendants(index)
	if err != nil {
		return err
	}
	if d := &e.arena[index]; d.HasParent() {
		parent, err := e.node(d.ParentIndex)
		if err != nil {
			return err
		}
		parent.ChildrenIndexes = slices.DeleteFunc(parent.ChildrenIndexes, func(ix int) bool { return ix == index })
	} else {
		e.lastRoots = slices.DeleteFunc(e.lastRoots, func(ix int) bool { return ix == index })
	}
	for _, ix := range doomed {
		delete(e.lastState, e.arena[ix].ID)
	}
	return nil
}

// descendants returns index and every index below it, validating each slot.
func (e *Engine) descendants(index int) ([]int, error) {
	var out []int
	stack := []int{index}
	for len(stack) > 0 {
		ix := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		d, err := e.node(ix)
		if err != nil {
			return nil, err
		}
		out = append(out, ix)
		stack = append(stack, d.ChildrenIndexes...)
	}
	return out, nil
}

func (e *Engine) applyModify(p *ModifyPatch) error {
	id := NameKey(p.Name, p.Role)
	index, ok := e.lastState[id]
	if !ok {
		return &EntityNotFoundError{Name: p.Name, Role: p.Role}
	}
	newID := id
	if p.NewName != nil {
		newID = NameKey(*p.NewName, p.Role)
	}
	if _, taken := e.lastState[newID]; taken && newID != id {
		return &DuplicateEntityError{Name: *p.NewName, Role: p.Role}
	}
	d, err := e.node(index)
	if err != nil {
		return err
	}

	ent := &d.Entity
	if p.NewName != nil {
		ent.Name = *p.NewName
	}
	if p.NewTypeName != nil {
		ent.TypeName = *p.NewTypeName
	}
	if ent.Attrs == nil {
		ent.Attrs = make(map[string]string, len(p.Modifications))
	}
	for k, v := range p.Modifications {
		ent.Attrs[k] = v
	}
	for _, k := range p.Deletions {
		delete(ent.Attrs, k)
	}
	ent.Extras = slices.Clone(p.Extras)

	delete(e.lastState, id)
	d.refreshKeys()
	e.lastState[d.ID] = index
	return nil
}

func (e *Engine) applyNew(p *NewPatch) error {
	parent := NoParent
	if p.Parent != nil {
		index, ok := e.lastState[NameKey(p.Parent.Name, p.Parent.Role)]
		if !ok {
			return &EntityNotFoundError{Name: p.Parent.Name, Role: p.Parent.Role}
		}
		parent = index
	}
	return e.load([]Entity{p.Entity}, parent, e.lastState, &e.lastRoots)
}
