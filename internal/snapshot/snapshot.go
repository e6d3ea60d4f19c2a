// Package snapshot reads and writes diff forests as YAML documents.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapdiff/pkg/diff"
)

// Version is the document version written by Encode.
const Version = 1

// ErrUnsupportedVersion is returned when a document has a version Decode
// does not understand.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

type document struct {
	Version  int    `yaml:"version"`
	Entities []node `yaml:"entities"`
}

type node struct {
	Name     string            `yaml:"name"`
	Role     string            `yaml:"role"`
	Type     string            `yaml:"type,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
	Extras   []string          `yaml:"extras,omitempty"`
	Children []node            `yaml:"children,omitempty"`
}

// Encode writes forest to w.
func Encode(w io.Writer, forest []diff.Entity) error {
	doc := document{Version: Version, Entities: toNodes(forest)}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return enc.Close()
}

// Decode reads a forest from r.
func Decode(r io.Reader) ([]diff.Entity, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode snapshot: empty document")
		}
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	return fromNodes(doc.Entities, "entities")
}

// ReadFile decodes the snapshot stored at path.
func ReadFile(path string) ([]diff.Entity, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	forest, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return forest, nil
}

// WriteFile encodes forest to path, creating parent directories as needed.
func WriteFile(path string, forest []diff.Entity) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec // path is user-provided
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := Encode(f, forest); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func toNodes(forest []diff.Entity) []node {
	if len(forest) == 0 {
		return []node{}
	}
	nodes := make([]node, len(forest))
	for i := range forest {
		e := &forest[i]
		nodes[i] = node{
			Name:   e.Name,
			Role:   e.Role,
			Type:   e.TypeName,
			Attrs:  e.Attrs,
			Extras: e.Extras,
		}
		if len(e.Children) > 0 {
			nodes[i].Children = toNodes(e.Children)
		}
	}
	return nodes
}

func fromNodes(nodes []node, path string) ([]diff.Entity, error) {
	forest := make([]diff.Entity, 0, len(nodes))
	for i, n := range nodes {
		at := fmt.Sprintf("%s[%d]", path, i)
		if n.Name == "" {
			return nil, fmt.Errorf("%s: name is required", at)
		}
		if n.Role == "" {
			return nil, fmt.Errorf("%s: role is required", at)
		}

		ent := diff.NewEntity(n.Name, n.Role, n.Type)
		for k, v := range n.Attrs {
			ent.Attrs[k] = v
		}
		if len(n.Extras) > 0 {
			ent.Extras = append([]string(nil), n.Extras...)
		}
		if len(n.Children) > 0 {
			children, err := fromNodes(n.Children, at+".children")
			if err != nil {
				return nil, err
			}
			ent.Children = children
		}
		forest = append(forest, ent)
	}
	return forest, nil
}
