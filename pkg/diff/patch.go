package diff

// PatchKind names one of the three patch variants.
type PatchKind string

const (
	KindNew    PatchKind = "new"
	KindModify PatchKind = "modify"
	KindDelete PatchKind = "delete"
)

// Patch is one atomic change needed to turn "last" into "current".
// The set of implementations is closed: *NewPatch, *ModifyPatch, *DeletePatch.
type Patch interface {
	Kind() PatchKind
	// Subject returns the (name, role) the patch is about.
	Subject() (name, role string)
	isPatch()
}

// ParentRef identifies a parent node by its (name, role).
type ParentRef struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// NewPatch creates Entity, with all of its children, under Parent.
// A nil Parent makes the entity a root.
type NewPatch struct {
	Entity Entity     `json:"entity"`
	Parent *ParentRef `json:"parent,omitempty"`
}

func (p *NewPatch) Kind() PatchKind { return KindNew }

func (p *NewPatch) Subject() (string, string) { return p.Entity.Name, p.Entity.Role }

func (*NewPatch) isPatch() {}

// ModifyPatch changes an existing entity in place.
//
// Modifications holds attributes to insert or overwrite; Deletions holds
// attribute keys to remove. Extras always replaces the whole extras list.
// NewName and NewTypeName are nil when unchanged.
type ModifyPatch struct {
	Name          string            `json:"name"`
	Role          string            `json:"role"`
	NewName       *string           `json:"new_name,omitempty"`
	NewTypeName   *string           `json:"new_type_name,omitempty"`
	Modifications map[string]string `json:"modifications,omitempty"`
	Deletions     []string          `json:"deletions,omitempty"`
	Extras        []string          `json:"extras,omitempty"`
}

func (p *ModifyPatch) Kind() PatchKind { return KindModify }

func (p *ModifyPatch) Subject() (string, string) { return p.Name, p.Role }

func (*ModifyPatch) isPatch() {}

// DeletePatch removes an entity and everything below it.
type DeletePatch struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (p *DeletePatch) Kind() PatchKind { return KindDelete }

func (p *DeletePatch) Subject() (string, string) { return p.Name, p.Role }

func (*DeletePatch) isPatch() {}
