package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatch_KindAndSubject(t *testing.T) {
	tests := []struct {
		patch    Patch
		kind     PatchKind
		wantName string
		wantRole string
	}{
		{&NewPatch{Entity: NewEntity("users", "table", "table")}, KindNew, "users", "table"},
		{&ModifyPatch{Name: "id", Role: "column"}, KindModify, "id", "column"},
		{&DeletePatch{Name: "pk", Role: "constraint"}, KindDelete, "pk", "constraint"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.patch.Kind())
			name, role := tt.patch.Subject()
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}
