package btree

import (
	"encoding/json"
	"os"

	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/pkg/errors"
)

// FileMeta is an IndexMeta backed by a small JSON sidecar file next to the
// data file, so a tree's root and key pattern survive across process
// restarts — the persisted counterpart InMemoryMeta's doc comment
// describes but leaves unimplemented. SetRoot only updates the in-memory
// value; callers that need durability call Flush explicitly, since
// IndexMeta.SetRoot has no error return to report a failed write.
type FileMeta struct {
	path   string
	name   string
	fields []comparator.FieldSpec
	order  comparator.Ordering
	root   locator.Locator
}

type fileMetaJSON struct {
	Name   string                 `json:"name"`
	Fields []comparator.FieldSpec `json:"fields"`
	Root   fileMetaLocatorJSON    `json:"root"`
}

type fileMetaLocatorJSON struct {
	File   int32 `json:"file"`
	Offset int64 `json:"offset"`
}

// OpenFileMeta loads path's sidecar if it exists, verifying its stored key
// pattern matches fields, or creates a fresh one describing an empty tree.
func OpenFileMeta(path, name string, fields []comparator.FieldSpec) (*FileMeta, error) {
	order, err := comparator.Make(fields)
	if err != nil {
		return nil, errors.Wrap(err, "btree: filemeta: build ordering")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &FileMeta{path: path, name: name, fields: fields, order: order, root: locator.Null}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "btree: filemeta: read %s", path)
	}

	var stored fileMetaJSON
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, errors.Wrapf(err, "btree: filemeta: decode %s", path)
	}
	if stored.Name != name {
		return nil, errors.Errorf("btree: filemeta: %s describes index %q, not %q", path, stored.Name, name)
	}
	if len(stored.Fields) != len(fields) {
		return nil, errors.Errorf("btree: filemeta: %s stores %d key fields, not %d", path, len(stored.Fields), len(fields))
	}
	for i := range fields {
		if stored.Fields[i] != fields[i] {
			return nil, errors.Errorf("btree: filemeta: %s stores key field %d as %+v, not %+v", path, i, stored.Fields[i], fields[i])
		}
	}

	return &FileMeta{
		path:   path,
		name:   name,
		fields: fields,
		order:  order,
		root:   locator.Locator{File: stored.Root.File, Offset: stored.Root.Offset},
	}, nil
}

func (m *FileMeta) Root() locator.Locator       { return m.root }
func (m *FileMeta) SetRoot(loc locator.Locator) { m.root = loc }
func (m *FileMeta) Order() comparator.Ordering  { return m.order }
func (m *FileMeta) Name() string                { return m.name }

// Flush persists the current root to the sidecar file.
func (m *FileMeta) Flush() error {
	stored := fileMetaJSON{
		Name:   m.name,
		Fields: m.fields,
		Root:   fileMetaLocatorJSON{File: m.root.File, Offset: m.root.Offset},
	}
	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return errors.Wrap(err, "btree: filemeta: encode")
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "btree: filemeta: write %s", m.path)
	}
	return nil
}
