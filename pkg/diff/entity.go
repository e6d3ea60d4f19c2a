package diff

import (
	"maps"
	"slices"
)

// identitySeparator is written between the fields of an identity key.
const identitySeparator = "|--|"

// Entity describes one node of a snapshot.
//
// Name should be fully qualified (like a canonical file path) and Role names
// the kind of node ("table", "column", ...). Within one snapshot every
// (Name, Role) pair must be unique. TypeName works like an inode number: it
// should survive a rename unchanged.
//
// Extras are hashed in order, so callers must keep them deterministically
// ordered or every run will report spurious changes.
type Entity struct {
	Name     string            `json:"name"`
	Role     string            `json:"role"`
	TypeName string            `json:"type_name"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Extras   []string          `json:"extras,omitempty"`
	Children []Entity          `json:"children,omitempty"`
}

// NewEntity returns an entity with an empty, non-nil attribute map.
func NewEntity(name, role, typeName string) Entity {
	return Entity{
		Name:     name,
		Role:     role,
		TypeName: typeName,
		Attrs:    map[string]string{},
	}
}

// NameKey returns the key used to match nodes across snapshots.
func NameKey(name, role string) uint64 {
	return hashFields(name, role)
}

// NameKey returns NameKey(e.Name, e.Role).
func (e *Entity) NameKey() uint64 {
	return NameKey(e.Name, e.Role)
}

// RoleKey hashes the role alone.
func (e *Entity) RoleKey() uint64 {
	return hashFields(e.Role)
}

// TypeKey hashes the type name alone.
func (e *Entity) TypeKey() uint64 {
	return hashFields(e.TypeName)
}

// IdentityKey fingerprints everything except the name and the children, so
// two entities that differ only by name share an identity key. Attributes
// are hashed in key order; extras in their given order.
func (e *Entity) IdentityKey() uint64 {
	h := newFieldHasher()
	h.writeField(e.TypeName)
	h.writeField(identitySeparator)
	h.writeField(e.Role)
	h.writeField(identitySeparator)
	for _, k := range slices.Sorted(maps.Keys(e.Attrs)) {
		h.writeField(k)
		h.writeField(identitySeparator)
		h.writeField(e.Attrs[k])
		h.writeField(identitySeparator)
	}
	h.writeField(identitySeparator)
	for _, extra := range e.Extras {
		h.writeField(identitySeparator)
		h.writeField(extra)
	}
	h.writeField(identitySeparator)
	return h.Sum64()
}

// Clone returns a deep copy of e, children included.
func (e *Entity) Clone() Entity {
	out := e.cloneNode()
	if len(e.Children) > 0 {
		out.Children = make([]Entity, len(e.Children))
		for i := range e.Children {
			out.Children[i] = e.Children[i].Clone()
		}
	}
	return out
}

// cloneNode copies e without its children.
func (e *Entity) cloneNode() Entity {
	out := Entity{
		Name:     e.Name,
		Role:     e.Role,
		TypeName: e.TypeName,
		Attrs:    make(map[string]string, len(e.Attrs)),
	}
	maps.Copy(out.Attrs, e.Attrs)
	if e.Extras != nil {
		out.Extras = slices.Clone(e.Extras)
	}
	return out
}
