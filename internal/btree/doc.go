// Package btree implements the tree operations, range navigator, and
// bulk builder that sit on top of a bucket.Bucket: find, locate, split
// insert, merge delete, and the customFind/customLocate/advanceTo
// machinery a compound-key range scan needs to walk multiple fields at
// once.
//
// Every algorithm here is adapted line-for-line from MongoDB's original
// mmapv1 BtreeBucket (db/btree.cpp) and BtreeBuilder, generalized from
// BSONObj keys and a fixed IndexDetails to comparator.Key/Ordering and
// the IndexMeta this engine consumes. The single-writer, declare-before-
// mutate discipline is unchanged: any locator a Tree method is about to
// overwrite gets its before-image handed to journal.Frame.Writing first.
package btree
