// Package locator defines the opaque, pointer-free page address used
// throughout the bucket-indexed B-tree engine.
//
// A Locator never resolves to memory directly; it is handed to a Pager
// (see package pager) which maps it to a mutable or immutable byte view.
// Locators are safe to persist inside a page (as a parent or child
// pointer) and remain valid across process restarts.
package locator
