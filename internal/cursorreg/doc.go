// Package cursorreg tracks open range cursors so a bucket about to be
// deleted can warn anyone positioned inside it: before a bucket is
// physically freed, every registered cursor is notified so it can
// re-locate. It is deliberately synchronous and narrow: no replay
// buffer, no resume tokens, no async delivery — a cursor either receives
// the notification in the same call that frees the bucket, or it was
// never registered and has nothing to miss.
package cursorreg
