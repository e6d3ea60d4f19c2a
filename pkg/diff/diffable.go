package diff

// NoParent is the ParentIndex of a root node.
const NoParent = -1

// Diffable is one arena slot: an entity plus its precomputed keys and its
// links to other slots. Entity.Children is always empty here; the structure
// lives in ChildrenIndexes.
type Diffable struct {
	Index int
	// ID is NameKey(name, role), the lookup key across snapshots.
	ID      uint64
	RoleKey uint64
	// IdentityKey changes when anything but the name or children changes.
	IdentityKey uint64
	TypeKey     uint64

	ParentIndex     int
	ChildrenIndexes []int

	Entity Entity
}

func newDiffable(index, parent int, ent *Entity) Diffable {
	d := Diffable{
		Index:       index,
		ParentIndex: parent,
		Entity:      ent.cloneNode(),
	}
	d.refreshKeys()
	return d
}

// HasParent reports whether d is nested under another node.
func (d *Diffable) HasParent() bool {
	return d.ParentIndex != NoParent
}

// refreshKeys recomputes every key from the current entity value.
func (d *Diffable) refreshKeys() {
	d.ID = d.Entity.NameKey()
	d.RoleKey = d.Entity.RoleKey()
	d.IdentityKey = d.Entity.IdentityKey()
	d.TypeKey = d.Entity.TypeKey()
}
