// Package pager implements the external page allocator and data-file
// manager the bucket engine treats as a consumed collaborator: fixed-size
// bucket allocation and release, addressed by locator.Locator rather than
// a flat page number, backed by a single memory-mapped growable file.
//
// The layout is a one-bucket (8KB) file header (magic, version, bucket size,
// total bucket count, free-list head) followed by fixed-size bucket
// slots, with freed slots threaded into an in-page linked free list
// instead of being returned to the OS. Addressing goes through
// locator.Locator instead of a bare page number, and the page checksum
// uses xxhash.
package pager
