// Package comparator implements the total order over composite document
// keys that the bucket-indexed B-tree engine sorts on.
//
// A Document is an ordered sequence of Fields, keyed positionally by an
// index's key pattern rather than by field name. Ordering carries the
// per-field ascending/descending mask the bucket engine applies when it
// calls WoCompare.
package comparator
