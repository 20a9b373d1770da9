// Package bucket implements the slotted-page layout a single tree node
// lives in: a front-growing slot array and a back-growing key heap inside
// one fixed-size page, plus the basic operations (pack, split-point
// selection, in-place insert/delete) that don't need to know about the
// tree above them.
//
// The layout and every method here are adapted line-for-line from
// MongoDB's original mmapv1 BucketBasics (db/btree.cpp): keys grow from
// the end of the page while _KeyNode slots grow from the front, deletes
// leave holes that accumulate until Pack defragments them, and a bucket
// is a leaf simply because none of its child locators are ever set — the
// same slot type serves both roles, so there is no separate leaf/internal
// struct to keep in sync.
package bucket
