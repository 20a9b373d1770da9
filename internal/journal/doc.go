// Package journal implements the write-intent log the bucket engine
// declares a mutation to before it touches a bucket in place: declare
// intent before mutating, since the single writer never needs more than
// one outstanding frame. It narrows a general write-ahead log and
// transaction manager down to the engine's single-writer model: one open
// write frame at a time, each recording the before-image of every
// locator it touches so a crash mid-frame can be undone on reopen.
package journal
