package diff

import (
	"log/slog"
	"maps"
	"slices"
)

// Engine holds a "last" and a "current" snapshot in one arena.
//
// Load each snapshot once, call Diff as often as needed, and after acting on
// the result replay the patches through Patch. Arena slots are never freed
// or reused: deleting a node only makes it unreachable, so every other index
// stays valid for the engine's lifetime.
type Engine struct {
	arena []Diffable

	lastState    map[uint64]int
	currentState map[uint64]int

	lastRoots    []int
	currentRoots []int

	logger *slog.Logger
}

// NewEngine creates an empty engine.
// If logger is nil, a discard logger is used.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		lastState:    make(map[uint64]int),
		currentState: make(map[uint64]int),
		logger:       logger,
	}
}

// pending is a queued entity waiting to be placed in the arena.
type pending struct {
	parent int
	entity *Entity
}

// LoadLastState adds forest to the baseline snapshot.
func (e *Engine) LoadLastState(forest []Entity) error {
	if err := e.load(forest, NoParent, e.lastState, &e.lastRoots); err != nil {
		return err
	}
	e.logger.Debug("loaded last state",
		slog.Int("entities", len(e.lastState)),
		slog.Int("roots", len(e.lastRoots)))
	return nil
}

// LoadCurrentState adds forest to the observed snapshot.
func (e *Engine) LoadCurrentState(forest []Entity) error {
	if err := e.load(forest, NoParent, e.currentState, &e.currentRoots); err != nil {
		return err
	}
	e.logger.Debug("loaded current state",
		slog.Int("entities", len(e.currentState)),
		slog.Int("roots", len(e.currentRoots)))
	return nil
}

// load checks forest for duplicates against state and then flattens it.
// Nothing is written unless the whole forest fits.
func (e *Engine) load(forest []Entity, parent int, state map[uint64]int, roots *[]int) error {
	if err := checkDuplicates(forest, state); err != nil {
		return err
	}
	e.flatten(forest, parent, state, roots)
	return nil
}

// checkDuplicates walks forest breadth-first, in the same order flatten does,
// and reports the first (name, role) already in state or seen earlier.
func checkDuplicates(forest []Entity, state map[uint64]int) error {
	seen := make(map[uint64]struct{})
	queue := make([]*Entity, 0, len(forest))
	for i := range forest {
		queue = append(queue, &forest[i])
	}
	for head := 0; head < len(queue); head++ {
		ent := queue[head]
		id := ent.NameKey()
		_, inState := state[id]
		_, inForest := seen[id]
		if inState || inForest {
			return &DuplicateEntityError{Name: ent.Name, Role: ent.Role}
		}
		seen[id] = struct{}{}
		for i := range ent.Children {
			queue = append(queue, &ent.Children[i])
		}
	}
	return nil
}

// flatten appends forest breadth-first to the arena and registers every node
// in state. Top-level entities hang under parent.
func (e *Engine) flatten(forest []Entity, parent int, state map[uint64]int, roots *[]int) {
	queue := make([]pending, 0, len(forest))
	for i := range forest {
		queue = append(queue, pending{parent: parent, entity: &forest[i]})
	}
	for head := 0; head < len(queue); head++ {
		item := queue[head]
		index := len(e.arena)
		e.arena = append(e.arena, newDiffable(index, item.parent, item.entity))
		state[e.arena[index].ID] = index

		if item.parent == NoParent {
			*roots = append(*roots, index)
		} else {
			e.arena[item.parent].ChildrenIndexes = append(e.arena[item.parent].ChildrenIndexes, index)
		}
		for i := range item.entity.Children {
			queue = append(queue, pending{parent: index, entity: &item.entity.Children[i]})
		}
	}
}

// Diff returns the patches that turn "last" into "current". It does not
// modify the engine.
//
// Nodes are matched by (name, role) only, so a rename shows up as a
// DeletePatch followed by a NewPatch, and a node that moved to another parent
// produces no patch at all.
func (e *Engine) Diff() ([]Patch, error) {
	var patches []Patch
	if err := e.collectPatches(e.currentRoots, e.lastRoots, &patches); err != nil {
		return nil, err
	}
	e.logger.Debug("computed diff", slog.Int("patches", len(patches)))
	return patches, nil
}

func (e *Engine) collectPatches(current, last []int, patches *[]Patch) error {
	visited := make(map[int]struct{}, len(last))

	for _, ci := range current {
		cur, err := e.node(ci)
		if err != nil {
			return err
		}

		li, ok := e.lastState[cur.ID]
		if !ok {
			p, err := e.makeNewPatch(cur)
			if err != nil {
				return err
			}
			*patches = append(*patches, p)
			continue
		}

		prev, err := e.node(li)
		if err != nil {
			return err
		}
		visited[li] = struct{}{}
		if cur.IdentityKey != prev.IdentityKey {
			*patches = append(*patches, makeModifyPatch(cur, prev))
		}
		if err := e.collectPatches(cur.ChildrenIndexes, prev.ChildrenIndexes, patches); err != nil {
			return err
		}
	}

	for _, li := range last {
		if _, ok := visited[li]; ok {
			continue
		}
		prev, err := e.node(li)
		if err != nil {
			return err
		}
		// A node still present elsewhere in current has moved, not vanished.
		if _, ok := e.currentState[prev.ID]; ok {
			continue
		}
		*patches = append(*patches, &DeletePatch{Name: prev.Entity.Name, Role: prev.Entity.Role})
	}
	return nil
}

func (e *Engine) makeNewPatch(cur *Diffable) (*NewPatch, error) {
	ent, err := e.subtree(cur.Index)
	if err != nil {
		return nil, err
	}
	p := &NewPatch{Entity: ent}
	if cur.HasParent() {
		parent, err := e.node(cur.ParentIndex)
		if err != nil {
			return nil, err
		}
		p.Parent = &ParentRef{Name: parent.Entity.Name, Role: parent.Entity.Role}
	}
	return p, nil
}

func makeModifyPatch(cur, prev *Diffable) *ModifyPatch {
	p := &ModifyPatch{
		Name:          prev.Entity.Name,
		Role:          prev.Entity.Role,
		Modifications: make(map[string]string),
		Deletions:     []string{},
		Extras:        slices.Clone(cur.Entity.Extras),
	}
	for k, v := range cur.Entity.Attrs {
		if old, ok := prev.Entity.Attrs[k]; !ok || old != v {
			p.Modifications[k] = v
		}
	}
	for _, k := range slices.Sorted(maps.Keys(prev.Entity.Attrs)) {
		if _, ok := cur.Entity.Attrs[k]; !ok {
			p.Deletions = append(p.Deletions, k)
		}
	}
	if name := cur.Entity.Name; name != prev.Entity.Name {
		p.NewName = &name
	}
	if typeName := cur.Entity.TypeName; typeName != prev.Entity.TypeName {
		p.NewTypeName = &typeName
	}
	return p
}

// subtree rebuilds the entity at index with all of its descendants.
func (e *Engine) subtree(index int) (Entity, error) {
	d, err := e.node(index)
	if err != nil {
		return Entity{}, err
	}
	ent := d.Entity.cloneNode()
	if len(d.ChildrenIndexes) > 0 {
		ent.Children = make([]Entity, 0, len(d.ChildrenIndexes))
	}
	for _, ci := range d.ChildrenIndexes {
		child, err := e.subtree(ci)
		if err != nil {
			return Entity{}, err
		}
		ent.Children = append(ent.Children, child)
	}
	return ent, nil
}

func (e *Engine) node(index int) (*Diffable, error) {
	if index < 0 || index >= len(e.arena) {
		return nil, &MissingFromArenaError{Index: index}
	}
	return &e.arena[index], nil
}
