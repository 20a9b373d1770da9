package btree

import (
	"fmt"
	"io"
	"strings"

	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/locator"
)

// Dump writes a human-readable, indented listing of every bucket
// reachable from the root to w: one line per key, child pointers shown
// inline, nested buckets indented under their parent. It is the
// adaptation of the original engine's bt_dmp, used the same way — to
// read a corrupted or puzzling index by eye rather than through the
// normal find/insert API.
func (t *Tree) Dump(w io.Writer) error {
	root := t.meta.Root()
	if root.IsNull() {
		fmt.Fprintln(w, "(empty)")
		return nil
	}
	return t.dumpSubtree(w, root, 0)
}

func (t *Tree) dumpSubtree(w io.Writer, loc locator.Locator, depth int) error {
	b, err := t.load(loc)
	if err != nil {
		return err
	}
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%sbucket %s (n=%d, parent=%s)\n", indent, loc, b.N(), b.Parent)

	if child := b.ChildForPos(0); !child.IsNull() {
		if err := t.dumpSubtree(w, child, depth+1); err != nil {
			return err
		}
	}
	for i := 0; i < b.N(); i++ {
		used := ""
		if !b.IsUsed(i) {
			used = " (unused)"
		}
		key, err := comparator.DecodeKey(b.KeyAt(i))
		if err != nil {
			fmt.Fprintf(w, "%s  key[%d]: <undecodable: %v>%s rec=%s\n", indent, i, err, used, b.RecordAt(i))
		} else {
			fmt.Fprintf(w, "%s  key[%d]: %s%s rec=%s\n", indent, i, describeDocument(key), used, b.RecordAt(i))
		}
		if child := b.ChildForPos(i + 1); !child.IsNull() {
			if err := t.dumpSubtree(w, child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
